package algo

import (
	"fmt"
	"strconv"
	"strings"
)

// OptType is the value type of a processor option
type OptType int

const (
	BoolOpt OptType = iota
	IntOpt
	FloatOpt
	StringOpt
	StringListOpt
)

func (t OptType) String() string {
	switch t {
	case BoolOpt:
		return "bool"
	case IntOpt:
		return "int"
	case FloatOpt:
		return "decimal"
	case StringOpt:
		return "string"
	case StringListOpt:
		return "string-list"
	}
	return "unknown"
}

// option is one typed entry of a processor's option table. The
// default is either a literal or a "$NAME" reference into the Meta
// registry, resolved on every read.
type option struct {
	name     string
	descr    string
	typ      OptType
	def      interface{}
	required bool
	ignored  bool

	// value is the explicit override, nil until set
	value interface{}
}

// optRule is a cross-option constraint "left op right"; both sides
// are numeric option names or literals.
type optRule struct {
	left  string
	op    string
	right string
}

func typeOf(v interface{}) (OptType, bool) {
	switch v.(type) {
	case bool:
		return BoolOpt, true
	case int:
		return IntOpt, true
	case float64:
		return FloatOpt, true
	case string:
		return StringOpt, true
	case []string:
		return StringListOpt, true
	}
	return 0, false
}

// AddOpt declares an option; the type follows from the default value.
// A string default of the form "$NAME" declares a late-bound global
// of the type typ passed via AddGlobalOpt.
func (p *Processor) AddOpt(name, descr string, def interface{}) {
	typ, ok := typeOf(def)
	if !ok {
		panic(fmt.Sprintf("unsupported option default %T for %q", def, name))
	}
	p.addOpt(&option{name: name, descr: descr, typ: typ, def: def})
}

// AddGlobalOpt declares an option whose default reads "$globalKey"
// from the Meta registry at every access.
func (p *Processor) AddGlobalOpt(name, descr, globalKey string, typ OptType) {
	p.addOpt(&option{name: name, descr: descr, typ: typ, def: "$" + globalKey})
}

// AddRequiredOpt declares an option that must be set before Run
func (p *Processor) AddRequiredOpt(name, descr string, def interface{}) {
	typ, ok := typeOf(def)
	if !ok {
		panic(fmt.Sprintf("unsupported option default %T for %q", def, name))
	}
	p.addOpt(&option{name: name, descr: descr, typ: typ, def: def,
		required: true})
}

func (p *Processor) addOpt(o *option) {
	if _, ok := p.optByName[o.name]; ok {
		panic(fmt.Sprintf("duplicate option %q", o.name))
	}
	p.opts = append(p.opts, o)
	p.optByName[o.name] = o
}

// AddOptRule registers a constraint "left op right" with
// op in {<, >, <=, >=}; sides are numeric option names or literals.
func (p *Processor) AddOptRule(rule string) {
	parts := strings.Fields(rule)
	if len(parts) != 3 {
		panic(fmt.Sprintf("malformed option rule %q", rule))
	}
	p.optRules = append(p.optRules, optRule{parts[0], parts[1], parts[2]})
}

// AddOptValidator registers a callback run before the processor
func (p *Processor) AddOptValidator(v func() error) {
	p.validators = append(p.validators, v)
}

// AddIgnoredOption marks an option as ignored; the flag propagates to
// descendant processors sharing the option name.
func (p *Processor) AddIgnoredOption(name string) {
	p.ignored[name] = true
	if o, ok := p.optByName[name]; ok {
		o.ignored = true
	}
	for _, child := range p.children {
		child.AddIgnoredOption(name)
	}
}

// HasOpt reports whether the option is declared
func (p *Processor) HasOpt(name string) bool {
	_, ok := p.optByName[name]
	return ok
}

// resolve returns the effective value of an option: the explicit
// override, or the default, with "$NAME" defaults read from Meta.
func (p *Processor) resolve(o *option) (interface{}, error) {
	if o.value != nil {
		return o.value, nil
	}
	if s, ok := o.def.(string); ok && strings.HasPrefix(s, "$") {
		raw, found := p.meta.Get(s[1:])
		if !found {
			return nil, &OptionError{p.name, o.name,
				"unknown global " + s}
		}
		v, err := coerce(raw, o.typ)
		if err != nil {
			return nil, &OptionError{p.name, o.name, err.Error()}
		}
		return v, nil
	}
	return o.def, nil
}

// coerce converts registry and CLI values to the option's type
func coerce(v interface{}, typ OptType) (interface{}, error) {
	switch typ {
	case BoolOpt:
		switch x := v.(type) {
		case bool:
			return x, nil
		case string:
			return strconv.ParseBool(x)
		}
	case IntOpt:
		switch x := v.(type) {
		case int:
			return x, nil
		case int64:
			return int(x), nil
		case float64:
			return int(x), nil
		case string:
			return strconv.Atoi(x)
		}
	case FloatOpt:
		switch x := v.(type) {
		case float64:
			return x, nil
		case int:
			return float64(x), nil
		case string:
			return strconv.ParseFloat(x, 64)
		}
	case StringOpt:
		if x, ok := v.(string); ok {
			return x, nil
		}
	case StringListOpt:
		switch x := v.(type) {
		case []string:
			return x, nil
		case string:
			return strings.Fields(x), nil
		}
	}
	return nil, fmt.Errorf("cannot convert %v (%T) to %s", v, v, typ)
}

// SetOptValue overrides an option; the value must match the type
func (p *Processor) SetOptValue(name string, value interface{}) error {
	o, ok := p.optByName[name]
	if !ok {
		return &OptionError{p.name, name, "unknown option"}
	}
	v, err := coerce(value, o.typ)
	if err != nil {
		return &OptionError{p.name, name, err.Error()}
	}
	o.value = v
	return nil
}

// OptValue returns the effective value, panicking on resolution
// failures; use after ValidateOptions.
func (p *Processor) OptValue(name string) interface{} {
	o, ok := p.optByName[name]
	if !ok {
		panic(&OptionError{p.name, name, "unknown option"})
	}
	v, err := p.resolve(o)
	if err != nil {
		panic(err)
	}
	return v
}

func (p *Processor) OptInt(name string) int {
	return p.OptValue(name).(int)
}

func (p *Processor) OptFloat(name string) float64 {
	return p.OptValue(name).(float64)
}

func (p *Processor) OptBool(name string) bool {
	return p.OptValue(name).(bool)
}

func (p *Processor) OptString(name string) string {
	return p.OptValue(name).(string)
}

func (p *Processor) OptStringList(name string) []string {
	return p.OptValue(name).([]string)
}

// ApplyVectorOptions parses argv-style tokens ("--name value",
// "--name=value", bare "--flag" for bools) and applies them as
// explicit overrides. Unknown flags are ignored.
func (p *Processor) ApplyVectorOptions(args []string) error {
	i := 0
	for i < len(args) {
		arg := args[i]
		i++
		if !strings.HasPrefix(arg, "--") {
			continue
		}
		name := arg[2:]
		value := ""
		hasValue := false
		if eq := strings.IndexByte(name, '='); eq != -1 {
			value = name[eq+1:]
			name = name[:eq]
			hasValue = true
		}
		o, ok := p.optByName[name]
		if !ok || o.ignored {
			continue
		}
		if !hasValue {
			if o.typ == BoolOpt &&
				(i >= len(args) || strings.HasPrefix(args[i], "--")) {
				value = "true"
			} else if i < len(args) {
				value = args[i]
				i++
			} else {
				return &OptionError{p.name, name, "missing value"}
			}
		}
		if o.typ == StringListOpt {
			list, _ := p.resolve(o)
			var prev []string
			if o.value != nil {
				prev = list.([]string)
			}
			o.value = append(prev, value)
			continue
		}
		if err := p.SetOptValue(name, value); err != nil {
			return err
		}
	}
	return nil
}

// numericOperand resolves a rule side to a number: an option name or
// a literal.
func (p *Processor) numericOperand(s string) (float64, error) {
	if o, ok := p.optByName[s]; ok {
		v, err := p.resolve(o)
		if err != nil {
			return 0, err
		}
		switch x := v.(type) {
		case int:
			return float64(x), nil
		case float64:
			return x, nil
		}
		return 0, &OptionError{p.name, s, "rule side is not numeric"}
	}
	return strconv.ParseFloat(s, 64)
}

// ValidateOptions checks required options, rules and validators
func (p *Processor) ValidateOptions() error {
	for _, o := range p.opts {
		if o.ignored {
			continue
		}
		if _, err := p.resolve(o); err != nil {
			return err
		}
		if o.required && o.value == nil {
			if s, ok := o.def.(string); !ok || s == "" {
				return &OptionError{p.name, o.name, "required option not set"}
			}
		}
	}
	for _, r := range p.optRules {
		left, err := p.numericOperand(r.left)
		if err != nil {
			return &OptionError{p.name, r.left, err.Error()}
		}
		right, err := p.numericOperand(r.right)
		if err != nil {
			return &OptionError{p.name, r.right, err.Error()}
		}
		ok := false
		switch r.op {
		case "<":
			ok = left < right
		case ">":
			ok = left > right
		case "<=":
			ok = left <= right
		case ">=":
			ok = left >= right
		default:
			return &OptionError{p.name, r.left, "bad rule operator " + r.op}
		}
		if !ok {
			return &OptionError{p.name, r.left,
				fmt.Sprintf("rule violated: %s %s %s (%v, %v)",
					r.left, r.op, r.right, left, right)}
		}
	}
	for _, v := range p.validators {
		if err := v(); err != nil {
			return &OptionError{p.name, "", err.Error()}
		}
	}
	return nil
}
