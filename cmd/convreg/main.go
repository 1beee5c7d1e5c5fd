// Package main is the entry point for convreg.
//
//	@title			convreg - Converter Registry
//	@version		1.0
//	@description	Resolves converter selectors into converters, converts values with them and stores named selectors.
//
//	@contact.name	convreg Support
//	@contact.url	https://github.com/artpar/convreg/issues
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
package main

func main() {
	Execute()
}
