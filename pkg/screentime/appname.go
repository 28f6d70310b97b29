package screentime

import (
	"strings"
	"unicode"
)

// Bundle identifiers whose last component makes a poor display name.
var knownApps = map[string]string{
	"company.thebrowser.Browser":    "Arc",
	"com.figma.Desktop":             "Figma",
	"com.todesktop.230313mzl4w4u92": "Cursor",
	"notion.id":                     "Notion",
	"com.adobe.Photoshop":           "Photoshop",
	"com.adobe.illustrator":         "Illustrator",
	"com.spotify.client":            "Spotify",
	"com.readdle.smartemail-Mac":    "Spark Email",
	"us.zoom.xos":                   "Zoom",
	"com.apple.FaceTime":            "FaceTime",
	"com.apple.Safari":              "Safari",
	"com.apple.finder":              "Finder",
	"com.d1v1b.ToWebP2":             "ToWebP",
	"com.garagecube.MadMapperDemo":  "MadMapper",
	"com.apple.systempreferences":   "System Preferences",
}

// DisplayName derives a human readable app name from a bundle identifier.
// Known bundles map directly; otherwise the last dot component is
// capitalized, skipping a generic trailing "desktop".
func DisplayName(bundle string) string {
	if bundle == "" {
		return bundle
	}
	if name, ok := knownApps[bundle]; ok {
		return name
	}
	if strings.Count(bundle, ".") >= 2 {
		parts := strings.Split(bundle, ".")
		last := parts[len(parts)-1]
		if strings.EqualFold(last, "desktop") && len(parts) > 2 {
			return capitalize(parts[len(parts)-2])
		}
		return capitalize(last)
	}
	return bundle
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

var deviceLabels = map[string]string{
	"iMac14,1":   "🖥️ iMac",
	"iPad8,11":   "📱 iPad Pro",
	"iPhone12,8": "📱 iPhone 12 mini",
	"iPhone13,3": "📱 iPhone 14 Pro",
	"iPhone16,2": "📱 iPhone 16 Pro",
}

// DeviceLabel formats a hardware model identifier into a readable label.
func DeviceLabel(model string) string {
	if model == "" || model == "Mac" {
		return "💻 Mac"
	}
	if label, ok := deviceLabels[model]; ok {
		return label
	}
	return "📱 " + model
}
