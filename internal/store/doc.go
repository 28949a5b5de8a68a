// Package store persists static identity key pairs on the owning
// device.
//
// Each owner gets its own file under <home>/keys/, so logging into a
// second account never overwrites the first account's secret. Files
// are written atomically (temp file, then rename) with 0600
// permissions; the directory permission boundary stands in for the
// mobile keychain the original design delegated to.
package store
