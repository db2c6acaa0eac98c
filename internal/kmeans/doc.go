// Package kmeans implements Lloyd's k-means clustering used to partition
// the vector space for the approximate index.
package kmeans
