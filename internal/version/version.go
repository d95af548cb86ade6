package version

// Value is overridden at build time with -ldflags "-X pharmamap/internal/version.Value=...".
var Value = "dev"
