package res

// AboutContent contains the Markdown content for the About dialog.
// This is maintained separately for easy updates.
const AboutContent = `A real-time audio visualizer built with Go and Fyne.

**Features:**
- Low, mid and high band analysis of the playing track
- Beat detection with ripples that expand from a pulsing core
- Dark and light backgrounds
- Pauses rendering while the window is in the background

**Shortcuts:**
- Alt+Space: play or pause
- Alt+Up / Alt+Down: volume
- Right click on the visualizer: switch background
`
