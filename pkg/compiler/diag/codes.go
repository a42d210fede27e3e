package diag

import "fmt"

// Code identifies a kind of diagnostic independently of its message text.
type Code int

const (
	// Template parser.
	EOFInTag Code = iota + 1
	EOFInComment
	MissingEndTag
	InvalidEndTag
	MissingInterpolationEnd
	InvalidFirstCharacterOfTagName
	DuplicateAttribute
	MissingAttributeValue
	MissingDirectiveName
	MissingDynamicDirectiveArgumentEnd
	UnexpectedCharacterInAttributeName

	// Script analyzer.
	ScriptSyntax
	DuplicateMacroCall
	UnsupportedScriptExport

	// Transformer.
	InvalidExpression
	VIfNoExpression
	VElseNoAdjacentIf
	VForNoExpression
	VForMalformedExpression
	VBindNoExpression
	VOnNoExpression
	VShowNoExpression
	VSlotMisplaced
	VSlotMixedSlotUsage
	VSlotDuplicateSlotNames
	VSlotExtraneousDefaultSlotChildren
	VModelNoExpression
	VModelMalformedExpression
	VModelOnInvalidElement
	VModelOnProps
	VModelOnScopeVariable
	VHTMLWithChildren
	VTextWithChildren
	VMemoNoExpression
	DirectiveOnTemplate
	DuplicateKeyOnTemplateChild

	// Internal invariants.
	UnresolvableHoist
	UnknownNode

	// Code generation.
	SourceMapMappingDropped
)

var codeInfo = map[Code]struct {
	sev Severity
	msg string
}{
	EOFInTag:                           {Error, "unexpected end of file inside a tag"},
	EOFInComment:                       {Error, "unexpected end of file inside a comment"},
	MissingEndTag:                      {Error, "element is missing its end tag"},
	InvalidEndTag:                      {Error, "invalid end tag"},
	MissingInterpolationEnd:            {Error, "interpolation end sign was not found"},
	InvalidFirstCharacterOfTagName:     {Error, "illegal tag name, use '&lt;' to print '<'"},
	DuplicateAttribute:                 {Error, "duplicate attribute"},
	MissingAttributeValue:              {Error, "attribute value was expected after '='"},
	MissingDirectiveName:               {Error, "legal directive name was expected"},
	MissingDynamicDirectiveArgumentEnd: {Error, "end bracket for dynamic directive argument was not found"},
	UnexpectedCharacterInAttributeName: {Error, "attribute name cannot contain U+0022 (\"), U+0027 ('), or U+003C (<)"},

	ScriptSyntax:            {Fatal, "syntax error in script"},
	DuplicateMacroCall:      {Error, "macro may only be called once"},
	UnsupportedScriptExport: {Warning, "default export is not an object literal"},

	InvalidExpression:                  {Error, "invalid JavaScript expression"},
	VIfNoExpression:                    {Error, "v-if/v-else-if is missing expression"},
	VElseNoAdjacentIf:                  {Error, "v-else/v-else-if has no adjacent v-if or v-else-if"},
	VForNoExpression:                   {Error, "v-for is missing expression"},
	VForMalformedExpression:            {Error, "v-for has invalid expression"},
	VBindNoExpression:                  {Error, "v-bind is missing expression"},
	VOnNoExpression:                    {Error, "v-on is missing expression"},
	VShowNoExpression:                  {Error, "v-show is missing expression"},
	VSlotMisplaced:                     {Error, "v-slot can only be used on components or <template> tags"},
	VSlotMixedSlotUsage:                {Error, "mixed v-slot usage on both the component and nested <template>"},
	VSlotDuplicateSlotNames:            {Error, "duplicate slot names found"},
	VSlotExtraneousDefaultSlotChildren: {Error, "extraneous children found when component already has explicitly named default slot"},
	VModelNoExpression:                 {Error, "v-model is missing expression"},
	VModelMalformedExpression:          {Error, "v-model value must be a valid JavaScript member expression"},
	VModelOnInvalidElement:             {Error, "v-model can only be used on <input>, <textarea> and <select> elements"},
	VModelOnProps:                      {Error, "v-model cannot be used on a prop, because local prop bindings are not writable"},
	VModelOnScopeVariable:              {Error, "v-model cannot be used on v-for or v-slot scope variables because they are not writable"},
	VHTMLWithChildren:                  {Error, "v-html will override element children"},
	VTextWithChildren:                  {Error, "v-text will override element children"},
	VMemoNoExpression:                  {Error, "v-memo is missing expression"},
	DirectiveOnTemplate:                {Error, "custom directives cannot be used on <template> elements"},
	DuplicateKeyOnTemplateChild:        {Warning, "<template v-for> key should be placed on the <template> tag"},

	UnresolvableHoist: {Fatal, "hoisted node index cannot be resolved"},
	UnknownNode:       {Fatal, "unknown node kind reached code generation"},

	SourceMapMappingDropped: {Warning, "source map mapping out of order, dropped"},
}

// Severity returns the default severity of the code.
func (c Code) Severity() Severity {
	if info, ok := codeInfo[c]; ok {
		return info.sev
	}
	return Error
}

// Message returns the default message of the code.
func (c Code) Message() string {
	if info, ok := codeInfo[c]; ok {
		return info.msg
	}
	return fmt.Sprintf("diagnostic %d", int(c))
}
