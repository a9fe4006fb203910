package validator

type Options struct {
	allowHighFees bool
	dontCheckFee  bool
}

// Option is a function that sets some option on the Options struct
type Option func(*Options)

func NewDefaultOptions() *Options {
	return &Options{}
}

func ProcessOptions(opts ...Option) *Options {
	options := NewDefaultOptions()
	for _, o := range opts {
		o(options)
	}

	return options
}

// WithAllowHighFees accepts transactions paying more than AbsurdFeeMultiplier times the minimum fee
func WithAllowHighFees(allow bool) Option {
	return func(o *Options) {
		o.allowHighFees = allow
	}
}

// WithDontCheckFee skips the minimum fee check
func WithDontCheckFee(skip bool) Option {
	return func(o *Options) {
		o.dontCheckFee = skip
	}
}
