// Package marketdata loads the engine's inputs from files: daily close
// series and option chain snapshots from CSV, and financial statements from
// Excel workbooks. FileProvider lays these out per symbol under one data
// directory.
package marketdata
