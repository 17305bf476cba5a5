package provider

import "strings"

// Key returns the storage key of file: hash and extension, prefixed with
// directory when one is configured. Surrounding slashes of directory are
// dropped so the key never starts with or doubles a separator.
func Key(file *File, directory string) string {
	name := file.Hash + file.Ext
	dir := strings.Trim(directory, "/")
	if dir == "" {
		return name
	}
	return dir + "/" + name
}
