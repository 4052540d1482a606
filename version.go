package subproc

// Version is the subproc release version.
const Version = "0.3.1"
