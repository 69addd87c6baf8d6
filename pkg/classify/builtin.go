package classify

import "strings"

// nodeBuiltins is the Node.js core module list (require('module').builtinModules).
var nodeBuiltins = map[string]struct{}{
	"_http_agent": {}, "_http_client": {}, "_http_common": {}, "_http_incoming": {},
	"_http_outgoing": {}, "_http_server": {}, "_stream_duplex": {}, "_stream_passthrough": {},
	"_stream_readable": {}, "_stream_transform": {}, "_stream_wrap": {}, "_stream_writable": {},
	"_tls_common": {}, "_tls_wrap": {},
	"assert": {}, "async_hooks": {}, "buffer": {}, "child_process": {}, "cluster": {},
	"console": {}, "constants": {}, "crypto": {}, "dgram": {}, "diagnostics_channel": {},
	"dns": {}, "domain": {}, "events": {}, "fs": {}, "http": {}, "http2": {}, "https": {},
	"inspector": {}, "module": {}, "net": {}, "os": {}, "path": {}, "perf_hooks": {},
	"process": {}, "punycode": {}, "querystring": {}, "readline": {}, "repl": {},
	"stream": {}, "string_decoder": {}, "sys": {}, "timers": {}, "tls": {},
	"trace_events": {}, "tty": {}, "url": {}, "util": {}, "v8": {}, "vm": {}, "wasi": {},
	"worker_threads": {}, "zlib": {},
}

// IsBuiltin reports whether specifier names a Node.js core module, including
// the node: scheme and sub-path forms such as "fs/promises".
func IsBuiltin(specifier string) bool {
	if strings.HasPrefix(specifier, "node:") {
		return true
	}
	name := specifier
	if i := strings.IndexByte(name, '/'); i >= 0 {
		name = name[:i]
	}
	_, ok := nodeBuiltins[name]
	return ok
}
