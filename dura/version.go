package dura

// Version of the program
const Version = "v0.6.2"

// ArchiveVersion is the archive format compatibility version. Archives
// written by this program carry it in their header and can only be
// opened by versions that understand it.
const ArchiveVersion = "0.6"
