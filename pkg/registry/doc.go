// Package registry resolves schema node tags to renderer descriptors. Tags
// fall into four classes (built-in fields and elements, custom fields and
// elements); custom misses are silent while built-in misses surface as an
// unsupported placeholder.
package registry
