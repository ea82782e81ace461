// Package linear verifies Linear personal API keys against the GraphQL API.
package linear
