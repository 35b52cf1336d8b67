// Package exporter writes valuation results to the output directory.
//
// Results are written as JSON, optionally zstd-compressed when the file name
// ends in .zst, with a CSV flattening of every valued contract next to it:
//
//	output.json                     every symbol of the run
//	output_bias_0.1_1_NaN.json      symbols with contracts flagged by a screen
//	put-call-ratio.json             {update_time, data} keyed by symbol
//	stock-benford-law.json          Benford profiles, see BenfordStore
//
// CSV prices are rounded to four decimals; unavailable estimates are -1.
package exporter
