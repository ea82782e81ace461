// Package httpapi is the JSON API a web dashboard panel calls.
//
// Routes:
//
//	GET    /integrations                      every provider with its state
//	GET    /integrations/{p}                  one provider
//	PUT    /integrations/{p}/enabled          {"enabled": bool}
//	PATCH  /integrations/{p}/settings         {"settings": {...}}
//	POST   /integrations/{p}/connect          {"token": "..."} for token providers
//	POST   /integrations/{p}/cancel           close a pending popup
//	POST   /integrations/{p}/disconnect
//	POST   /integrations/{p}/actions/{name}   action payload
//	GET    /healthz
//
// Errors are returned as {"error": {"kind", "message"}} with a status
// derived from the flow error kind.
package httpapi
