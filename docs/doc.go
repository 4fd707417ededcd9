// Package docs provides generated OpenAPI documentation.
//
// Darkroom API
//
//	@title			Darkroom API
//	@version		1.0
//	@description	AI photo studio API for managing shoots, frames, snapshots, and image generation.
//
//	@contact.name	API Support
//	@contact.url	https://github.com/jackzampolin/darkroom
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8585
//	@BasePath	/
//
//	@schemes	http https
package docs

//go:generate swag init -g ../cmd/darkroom/serve.go -o ./swagger --parseDependency --parseInternal
