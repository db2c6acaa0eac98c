// Package manifest records which published artifacts form the live index.
//
// Every publish writes an immutable MANIFEST-NNNNNN.json blob and then
// repoints CURRENT at it. Readers resolve CURRENT first, so they observe
// either the previous or the new manifest and never a partial one. With a
// blob store that commits CURRENT conditionally (s3.DDBCommitStore) two
// concurrent publishers cannot both win.
package manifest
