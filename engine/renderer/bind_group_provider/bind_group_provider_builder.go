package bind_group_provider

// BindGroupProviderBuilderOption is a functional option applied to a provider during construction.
type BindGroupProviderBuilderOption func(*bindGroupProvider)

// WithLabel sets the debug label of the provider.
//
// Parameters:
//   - label: the label used for the GPU objects
//
// Returns:
//   - BindGroupProviderBuilderOption: a function that applies the label option
func WithLabel(label string) BindGroupProviderBuilderOption {
	return func(p *bindGroupProvider) {
		p.label = label
	}
}
