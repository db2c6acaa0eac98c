// Package corpus provides lexical.Source implementations that read track
// documents from JSON Lines files, CSV files and SQL databases.
//
// Every source is restartable: each call to Documents re-opens its input
// and yields the documents in the same order, which lets an interrupted
// index build skip the prefix it already consumed. Records that cannot be
// decoded are logged and skipped.
package corpus
