package version

// Version is the release version stamped into builds and compared against
// the latest published release by the update check.
const Version = "0.4.0"
