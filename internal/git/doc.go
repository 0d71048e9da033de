// Package git resolves the source revision of the package being documented
// so merge reports can record which commit produced an archive.
package git
