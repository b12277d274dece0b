package koan

import (
	"github.com/roach88/koans/internal/lesson"
	"github.com/roach88/koans/internal/value"
)

// program holds the classes a lesson declares, built once per file.
type program struct {
	classes map[string]*classDef
}

type classDef struct {
	class   *value.Class
	readers map[string]string // method name -> ivar
	writers map[string]string // "name=" -> ivar
	methods map[string]*lesson.Method
}

func newProgram(file *lesson.File) *program {
	p := &program{classes: make(map[string]*classDef, len(file.Classes))}
	for i := range file.Classes {
		c := &file.Classes[i]
		def := &classDef{
			class:   value.NewClass(c.Name),
			readers: make(map[string]string),
			writers: make(map[string]string),
			methods: make(map[string]*lesson.Method, len(c.Methods)),
		}
		for _, attr := range c.AttrReader {
			def.readers[attr] = "@" + attr
		}
		for _, attr := range c.AttrWriter {
			def.writers[attr+"="] = "@" + attr
		}
		for _, attr := range c.AttrAccessor {
			def.readers[attr] = "@" + attr
			def.writers[attr+"="] = "@" + attr
		}
		for j := range c.Methods {
			def.methods[c.Methods[j].Name] = &c.Methods[j]
		}
		p.classes[c.Name] = def
	}
	return p
}

// lookupClass resolves a constant to a declared or builtin class.
func (p *program) lookupClass(name string) (*value.Class, bool) {
	if def, ok := p.classes[name]; ok {
		return def.class, true
	}
	return value.BuiltinClass(name)
}

// defOf returns the declaration behind an instance's class.
func (p *program) defOf(inst *value.Instance) *classDef {
	def, ok := p.classes[inst.Class.Name]
	if !ok || def.class != inst.Class {
		return nil
	}
	return def
}
