package version

// AppVersion is the chatdeck version; overridden at build time via
// -ldflags "-X chatdeck/internal/version.AppVersion=v1.2.3".
var AppVersion = "0.1.0-dev"
