package resolve

// Options are caller-tunable thresholds for one resolution call. The
// zero value is not useful; start from DefaultOptions.
type Options struct {
	// MaxTextDepth bounds text-chain recursion.
	MaxTextDepth int
	// EncoderLiteralMin is the length gate distinguishing a baked-in
	// prompt from a throwaway short string on encoder nodes.
	EncoderLiteralMin int
	// LongLiteralMin is the length gate for caption output and the
	// generic config-scan fallback.
	LongLiteralMin int
	// DelimiterMax is the maximum length of a config string treated as
	// a concatenation delimiter.
	DelimiterMax int
	// TraceDepth bounds the backward walk that locates the loader
	// feeding a terminal.
	TraceDepth int
	// FixedPairSlots bounds pair decoding for the fixed-slot loader family.
	FixedPairSlots int
	// Blacklist excludes adapters by normalized-name keyword match.
	Blacklist Blacklist
}

// DefaultOptions returns the reference thresholds.
func DefaultOptions() Options {
	return Options{
		MaxTextDepth:      20,
		EncoderLiteralMin: 10,
		LongLiteralMin:    20,
		DelimiterMax:      3,
		TraceDepth:        10,
		FixedPairSlots:    4,
	}
}
