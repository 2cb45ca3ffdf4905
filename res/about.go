package res

// AboutContent contains the Markdown content for the About dialog.
const AboutContent = `A streaming music player built with Go and Fyne.

**Features:**
- Songs from an HTTP catalog, a local database or a music folder
- Playback notifications with transport actions
- Media keys and desktop controllers over MPRIS

Configuration lives in ` + "`$XDG_CONFIG_HOME/tunestream/config.toml`" + `.
`
