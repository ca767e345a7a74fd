// Package device snapshots the client environment attached to feedback
// submissions. User agents are parsed with github.com/mssola/useragent.
package device

import (
	"strings"

	"github.com/mssola/useragent"

	"github.com/goliatone/go-playerfeedback/pkg/model"
)

const (
	NoProductInfo      = "No product information was found"
	NoManufacturerInfo = "No manufacturer information was found"
)

// Environment is what the host knows about the client: the raw user agent and
// the navigator-style platform identifier.
type Environment struct {
	UserAgent string
	Platform  string
}

// Resolve fills an empty Platform from the user agent.
func (e Environment) Resolve() Environment {
	e.UserAgent = strings.TrimSpace(e.UserAgent)
	if strings.TrimSpace(e.Platform) == "" {
		e.Platform = PlatformOf(e.UserAgent)
	}
	return e
}

// Snapshot parses the environment's user agent into a DeviceInfo.
func (e Environment) Snapshot() model.DeviceInfo {
	return Detect(e.UserAgent)
}

// Detect parses a raw user agent string.
func Detect(raw string) model.DeviceInfo {
	raw = strings.TrimSpace(raw)
	ua := useragent.New(raw)

	browser, browserVersion := ua.Browser()
	engine, _ := ua.Engine()
	osInfo := ua.OSInfo()

	info := model.DeviceInfo{
		Browser:        browser,
		BrowserVersion: browserVersion,
		RenderEngine:   engine,
		OS:             osInfo.Name,
		OSVersion:      osInfo.Version,
		Product:        product(ua, raw),
		Manufacturer:   manufacturer(raw),
		UserAgent:      raw,
	}
	info.Description = describe(info, ua.OS())
	return info
}

// PlatformOf approximates navigator.platform for a user agent.
func PlatformOf(raw string) string {
	if raw == "" {
		return ""
	}
	ua := useragent.New(raw)
	switch platform := ua.Platform(); {
	case strings.HasPrefix(platform, "Windows"):
		return "Win32"
	case platform == "Macintosh":
		return "MacIntel"
	case platform == "iPhone", platform == "iPad", platform == "iPod":
		return platform
	case strings.Contains(raw, "Android"):
		return "Linux armv8l"
	case strings.Contains(raw, "x86_64"):
		return "Linux x86_64"
	case platform == "X11", platform == "Linux":
		return "Linux"
	default:
		return platform
	}
}

func product(ua *useragent.UserAgent, raw string) string {
	if m := strings.TrimSpace(ua.Model()); m != "" {
		return m
	}
	for _, name := range []string{"iPhone", "iPad", "iPod"} {
		if strings.Contains(raw, name) {
			return name
		}
	}
	return NoProductInfo
}

var manufacturerHints = []struct {
	needle string
	name   string
}{
	{"iPhone", "Apple"},
	{"iPad", "Apple"},
	{"iPod", "Apple"},
	{"Macintosh", "Apple"},
	{"SM-", "Samsung"},
	{"Pixel", "Google"},
	{"Nexus", "Google"},
	{"HUAWEI", "Huawei"},
	{"Xbox", "Microsoft"},
	{"PlayStation", "Sony"},
	{"Nintendo", "Nintendo"},
	{"Kindle", "Amazon"},
	{"Silk", "Amazon"},
}

func manufacturer(raw string) string {
	for _, hint := range manufacturerHints {
		if strings.Contains(raw, hint.needle) {
			return hint.name
		}
	}
	return NoManufacturerInfo
}

func describe(info model.DeviceInfo, osName string) string {
	var parts []string
	if info.Browser != "" {
		parts = append(parts, strings.TrimSpace(info.Browser+" "+info.BrowserVersion))
	}
	if osName = strings.TrimSpace(osName); osName != "" {
		if len(parts) > 0 {
			parts = append(parts, "on")
		}
		parts = append(parts, osName)
	}
	return strings.Join(parts, " ")
}
