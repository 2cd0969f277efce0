// Package jellyfin implements the catalog collaborator client: favorite item
// queries, child-track expansion under favorited containers, and primary
// album image fetches.
package jellyfin
