package shader

// DefaultTextureGroup is the bind group that texreg declarations are emitted into.
const DefaultTextureGroup = 2

// PreProcessorBuilderOption is a functional option applied to a pre-processor during construction via NewPreProcessor.
type PreProcessorBuilderOption func(*preProcessor)

// WithStruct registers a WGSL struct that templates can inject with @oxy:include.
//
// Parameters:
//   - key: the include key
//   - s: the struct source and type name
//
// Returns:
//   - PreProcessorBuilderOption: a function that registers the struct on a pre-processor
func WithStruct(key string, s Struct) PreProcessorBuilderOption {
	return func(p *preProcessor) {
		p.structs[key] = s
	}
}

// WithLibrary sets the piece library used to resolve @oxy:insert.
//
// Parameters:
//   - lib: the piece library
//
// Returns:
//   - PreProcessorBuilderOption: a function that applies the library to a pre-processor
func WithLibrary(lib *Library) PreProcessorBuilderOption {
	return func(p *preProcessor) {
		p.library = lib
	}
}

// WithTextureGroup sets the bind group that texreg declarations are emitted into.
//
// Parameters:
//   - group: the bind group index
//
// Returns:
//   - PreProcessorBuilderOption: a function that applies the group to a pre-processor
func WithTextureGroup(group int) PreProcessorBuilderOption {
	return func(p *preProcessor) {
		p.textureGroup = group
	}
}
