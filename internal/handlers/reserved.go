package handlers

// reservedSegments are first path segments owned by this service, never short codes.
var reservedSegments = map[string]struct{}{
	"health":       {},
	"state":        {},
	"copy":         {},
	"api":          {},
	"docs":         {},
	"openapi.json": {},
	"openapi.yaml": {},
	"schemas":      {},
	"favicon.ico":  {},
	"robots.txt":   {},
}

// IsReserved reports whether segment names a route of this service.
func IsReserved(segment string) bool {
	_, ok := reservedSegments[segment]

	return ok
}
