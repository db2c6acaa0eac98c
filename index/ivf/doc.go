// Package ivf implements an inverted-file approximate nearest neighbor index.
//
// Build partitions the vectors into NumClusters cells with k-means. A search
// ranks the centroids against the query, scans the vectors of the NProbe
// closest cells exactly and returns the k best. Recall is below 100% unless
// every cell is probed; NProbe trades accuracy for speed.
package ivf
