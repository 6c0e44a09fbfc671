package resolve

// Family groups node kinds by resolution behavior. Every component that
// needs an "is this kind an X" answer goes through this table; kind
// strings are never compared at call sites.
type Family int

const (
	FamilyUnknown Family = iota
	FamilyLiteralText
	FamilyPromptEncoder
	FamilyConcat
	FamilyPassThrough
	FamilyCaption
	FamilyPromptManager
	FamilyLoaderEntries   // one record per entry, each with an enable flag
	FamilyLoaderStackList // one config value is itself a list of records
	FamilyLoaderPairs     // flat alternating (name, strength) pairs
	FamilyLoaderFixed     // pair decoding bounded to a fixed slot count
	FamilyLoaderSingle    // [name, strength, clipStrength?]
)

var kindFamilies = map[string]Family{
	"PrimitiveStringMultiline": FamilyLiteralText,
	"PrimitiveString":          FamilyLiteralText,
	"String":                   FamilyLiteralText,
	"Text":                     FamilyLiteralText,

	"CLIPTextEncode":     FamilyPromptEncoder,
	"CLIPTextEncodeSDXL": FamilyPromptEncoder,
	"CLIPTextEncodeFlux": FamilyPromptEncoder,

	"StringConcatenate": FamilyConcat,
	"Text Concatenate":  FamilyConcat,
	"Concat String":     FamilyConcat,

	"Text Find and Replace": FamilyPassThrough,
	"FindReplace":           FamilyPassThrough,
	"String Replace":        FamilyPassThrough,
	"easy showAnything":     FamilyPassThrough,
	"ShowText":              FamilyPassThrough,
	"Preview String":        FamilyPassThrough,

	"Florence2Run": FamilyCaption,
	"Florence2":    FamilyCaption,

	"PromptManager":         FamilyPromptManager,
	"PromptManagerAdvanced": FamilyPromptManager,

	"Power Lora Loader (rgthree)": FamilyLoaderEntries,

	"Lora Stacker (LoraManager)":  FamilyLoaderStackList,
	"LoRA Stacker":                FamilyLoaderStackList,
	"LoraStacker":                 FamilyLoaderStackList,
	"LoRA Stacker (LoRA Manager)": FamilyLoaderStackList,

	"WanVideoLoraSelectMulti": FamilyLoaderPairs,

	"WanVideoLoraSelect": FamilyLoaderFixed,

	"LoraLoader":          FamilyLoaderSingle,
	"LoraLoaderModelOnly": FamilyLoaderSingle,
	"LoRALoader":          FamilyLoaderSingle,
	"LoraLoaderKJNodes":   FamilyLoaderSingle,
}

// FamilyOf returns the behavior family for a node kind tag.
func FamilyOf(kind string) Family {
	return kindFamilies[kind]
}

// IsLoaderFamily reports whether the family is any adapter-loader family.
func IsLoaderFamily(f Family) bool {
	switch f {
	case FamilyLoaderEntries, FamilyLoaderStackList, FamilyLoaderPairs,
		FamilyLoaderFixed, FamilyLoaderSingle:
		return true
	}
	return false
}

// IsLoaderKind reports whether a kind tag is any adapter-loader family.
func IsLoaderKind(kind string) bool {
	return IsLoaderFamily(FamilyOf(kind))
}

// IsStackerKind reports whether a kind tag is a stack-type loader, the
// family discovered from terminal stacker nodes as well as model chains.
func IsStackerKind(kind string) bool {
	return FamilyOf(kind) == FamilyLoaderStackList
}

// modelInputNames are declared input slot names that carry a base-model
// or adapter-stack connection, covering single- and dual-stage wiring.
var modelInputNames = map[string]bool{
	"model":            true,
	"MODEL":            true,
	"model_high_noise": true,
	"model_low_noise":  true,
	"base_model":       true,
	"refiner_model":    true,
	"unet":             true,
	"lora_stack":       true,
	"lora":             true,
}

// modelSlotTypes are declared slot type tags that carry a base-model or
// adapter-stack connection.
var modelSlotTypes = map[string]bool{
	"MODEL":      true,
	"LORA_STACK": true,
	"WANVIDLORA": true,
}

// isModelSlotName reports whether an input slot name indicates a
// model/adapter-stack connection.
func isModelSlotName(name string) bool {
	return modelInputNames[name]
}

// isModelSlotType reports whether a declared slot type indicates a
// model/adapter-stack connection.
func isModelSlotType(t string) bool {
	return modelSlotTypes[t]
}
