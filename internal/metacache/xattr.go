package metacache

import "github.com/pkg/xattr"

// Extended attribute names autopkg's URLDownloader stamps on the files
// it fetches. The cache mirrors them so a synthesized placeholder can
// answer the server's conditional-request headers on the next check.
const (
	AttrETag         = "com.github.autopkg.etag"
	AttrLastModified = "com.github.autopkg.last-modified"
)

// FileAttr returns the named extended attribute, or "" when the
// attribute is missing or the filesystem does not support xattrs.
func FileAttr(path, attr string) string {
	data, err := xattr.Get(path, attr)
	if err != nil {
		return ""
	}
	return string(data)
}

func setFileAttr(path, attr, value string) error {
	return xattr.Set(path, attr, []byte(value))
}
