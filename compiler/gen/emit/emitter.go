// Package emit generates Go source artifacts from the compiled schema
// graph using Jennifer. Imports are tracked automatically, so the output
// needs no separate goimports pass.
package emit

import (
	"bytes"
	"strings"

	"github.com/dave/jennifer/jen"
	"github.com/go-openapi/inflect"

	"github.com/tabula-io/tabula/compiler/gen"
)

// RegistryStem is the output file stem of the master table registry.
const RegistryStem = "tables"

// Emitter produces Go source artifacts for enums, structs, tables and
// the master registry.
type Emitter struct {
	graph *gen.Graph
	pkg   string
}

// NewEmitter creates an emitter for the graph. The output package name
// is derived from the configured package import path.
func NewEmitter(g *gen.Graph) *Emitter {
	pkg := "tables"
	if g.Config.Package != "" {
		if idx := strings.LastIndex(g.Config.Package, "/"); idx >= 0 {
			pkg = g.Config.Package[idx+1:]
		} else {
			pkg = g.Config.Package
		}
	}
	return &Emitter{graph: g, pkg: pkg}
}

func (e *Emitter) newFile() *jen.File {
	f := jen.NewFile(e.pkg)
	if h := e.graph.Config.Header; h != "" {
		f.HeaderComment(h)
	} else {
		f.HeaderComment("Code generated by tabula. DO NOT EDIT.")
	}
	return f
}

func (e *Emitter) render(f *jen.File, name string) (*gen.Artifact, error) {
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, gen.NewGenerationError("code", name, "render", err)
	}
	return &gen.Artifact{Name: name, Data: buf.Bytes(), Encoding: gen.EncodingText}, nil
}

// GoName returns the exported Go identifier for a schema name.
func GoName(name string) string {
	return inflect.Camelize(strings.ReplaceAll(name, ".", "_"))
}

// EmitEnum generates the Go source artifact for an enumeration.
func (e *Emitter) EmitEnum(def *gen.EnumDef) (*gen.Artifact, error) {
	f := e.newFile()
	goName := GoName(def.Name)
	if def.Comment != "" {
		f.Commentf("%s: %s", goName, def.Comment)
	}
	f.Type().Id(goName).Int32()
	f.Line()

	defs := make([]jen.Code, 0, len(def.Items))
	for _, it := range def.Items {
		c := jen.Id(goName + GoName(it.Name)).Id(goName).Op("=").Lit(it.Value)
		if it.Comment != "" {
			c = c.Comment(it.Comment)
		}
		defs = append(defs, c)
	}
	f.Const().Defs(defs...)
	f.Line()

	// Name lookup used by loaders that decode enum items from strings.
	cases := make([]jen.Code, 0, len(def.Items)+1)
	for _, it := range def.Items {
		cases = append(cases, jen.Case(jen.Lit(it.Name)).Block(
			jen.Return(jen.Id(goName+GoName(it.Name)), jen.True()),
		))
	}
	cases = append(cases, jen.Default().Block(jen.Return(jen.Lit(0), jen.False())))
	f.Commentf("%sByName resolves an item by its schema name.", goName)
	f.Func().Id(goName+"ByName").Params(jen.Id("name").String()).Params(jen.Id(goName), jen.Bool()).Block(
		jen.Switch(jen.Id("name")).Block(cases...),
	)
	return e.render(f, strings.ToLower(strings.ReplaceAll(def.Name, ".", "_"))+".go")
}

// EmitStruct generates the Go source artifact for a record structure.
func (e *Emitter) EmitStruct(def *gen.StructDef) (*gen.Artifact, error) {
	f := e.newFile()
	goName := GoName(def.Name)
	if def.Comment != "" {
		f.Commentf("%s: %s", goName, def.Comment)
	}
	fields := make([]jen.Code, 0, len(def.Fields))
	for _, fd := range def.Fields {
		field := jen.Id(GoName(fd.Name)).Add(goFieldType(fd)).Tag(map[string]string{"json": fd.Name})
		fields = append(fields, field)
	}
	f.Type().Id(goName).Struct(fields...)
	return e.render(f, strings.ToLower(strings.ReplaceAll(def.Name, ".", "_"))+".go")
}

// EmitTable generates the Go source artifact for a table accessor.
func (e *Emitter) EmitTable(def *gen.TableDef) (*gen.Artifact, error) {
	f := e.newFile()
	tblName := GoName(def.FullName) + "Table"
	valName := GoName(def.ValueType.Name)
	if def.Comment != "" {
		f.Commentf("%s: %s", tblName, def.Comment)
	}
	switch def.Mode {
	case gen.ModeMap:
		idxField, ok := def.ValueType.Field(def.Index)
		if !ok {
			return nil, gen.NewGenerationError("code", def.FullName, "index field missing on value type", nil)
		}
		keyType := goFieldType(idxField)
		f.Type().Id(tblName).Struct(
			jen.Id("rows").Index().Op("*").Id(valName),
			jen.Id("byKey").Map(jen.Add(keyType)).Op("*").Id(valName),
		)
		f.Line()
		f.Commentf("New%s indexes rows by %s. Later rows supersede earlier ones.", tblName, def.Index)
		f.Func().Id("New"+tblName).Params(jen.Id("rows").Index().Op("*").Id(valName)).Op("*").Id(tblName).Block(
			jen.Id("t").Op(":=").Op("&").Id(tblName).Values(jen.Dict{
				jen.Id("rows"):  jen.Id("rows"),
				jen.Id("byKey"): jen.Make(jen.Map(jen.Add(goFieldType(idxField))).Op("*").Id(valName), jen.Len(jen.Id("rows"))),
			}),
			jen.For(jen.List(jen.Id("_"), jen.Id("r")).Op(":=").Range().Id("rows")).Block(
				jen.Id("t").Dot("byKey").Index(jen.Id("r").Dot(GoName(def.Index))).Op("=").Id("r"),
			),
			jen.Return(jen.Id("t")),
		)
		f.Line()
		f.Comment("Get returns the row with the given key.")
		f.Func().Params(jen.Id("t").Op("*").Id(tblName)).Id("Get").Params(jen.Id("key").Add(goFieldType(idxField))).Params(jen.Op("*").Id(valName), jen.Bool()).Block(
			jen.List(jen.Id("r"), jen.Id("ok")).Op(":=").Id("t").Dot("byKey").Index(jen.Id("key")),
			jen.Return(jen.Id("r"), jen.Id("ok")),
		)
	case gen.ModeOne:
		f.Type().Id(tblName).Struct(
			jen.Id("row").Op("*").Id(valName),
		)
		f.Line()
		f.Func().Id("New"+tblName).Params(jen.Id("row").Op("*").Id(valName)).Op("*").Id(tblName).Block(
			jen.Return(jen.Op("&").Id(tblName).Values(jen.Dict{jen.Id("row"): jen.Id("row")})),
		)
		f.Line()
		f.Comment("Row returns the singleton record.")
		f.Func().Params(jen.Id("t").Op("*").Id(tblName)).Id("Row").Params().Op("*").Id(valName).Block(
			jen.Return(jen.Id("t").Dot("row")),
		)
	default:
		f.Type().Id(tblName).Struct(
			jen.Id("rows").Index().Op("*").Id(valName),
		)
		f.Line()
		f.Func().Id("New"+tblName).Params(jen.Id("rows").Index().Op("*").Id(valName)).Op("*").Id(tblName).Block(
			jen.Return(jen.Op("&").Id(tblName).Values(jen.Dict{jen.Id("rows"): jen.Id("rows")})),
		)
	}
	f.Line()
	f.Comment("All returns the rows in serialized order.")
	if def.Mode == gen.ModeOne {
		f.Func().Params(jen.Id("t").Op("*").Id(tblName)).Id("All").Params().Index().Op("*").Id(valName).Block(
			jen.Return(jen.Index().Op("*").Id(valName).Values(jen.Id("t").Dot("row"))),
		)
	} else {
		f.Func().Params(jen.Id("t").Op("*").Id(tblName)).Id("All").Params().Index().Op("*").Id(valName).Block(
			jen.Return(jen.Id("t").Dot("rows")),
		)
	}
	return e.render(f, strings.ToLower(strings.ReplaceAll(def.FullName, ".", "_"))+"_table.go")
}

// EmitRegistry generates the master table registry over the given export
// set: one field per table plus the ordered identity list loaders iterate.
func (e *Emitter) EmitRegistry(tables []*gen.TableDef) (*gen.Artifact, error) {
	f := e.newFile()
	fields := make([]jen.Code, 0, len(tables))
	for _, t := range tables {
		fields = append(fields, jen.Id(GoName(t.FullName)).Op("*").Id(GoName(t.FullName)+"Table"))
	}
	f.Comment("Tables is the master registry of every exported table.")
	f.Type().Id("Tables").Struct(fields...)
	f.Line()

	names := make([]jen.Code, 0, len(tables))
	for _, t := range tables {
		names = append(names, jen.Lit(t.FullName))
	}
	f.Comment("TableIdentities lists every exported table identity in export order.")
	f.Var().Id("TableIdentities").Op("=").Index().String().Values(names...)
	f.Line()

	stems := make(jen.Dict, len(tables))
	for _, t := range tables {
		stems[jen.Lit(t.FullName)] = jen.Lit(t.OutputStem())
	}
	f.Comment("TableOutputs maps table identities to their output file stems.")
	f.Var().Id("TableOutputs").Op("=").Map(jen.String()).String().Values(stems)
	return e.render(f, RegistryStem+".go")
}

func goFieldType(fd *gen.FieldDef) jen.Code {
	switch fd.Type {
	case gen.TypeString:
		return jen.String()
	case gen.TypeInt:
		return jen.Int32()
	case gen.TypeLong:
		return jen.Int64()
	case gen.TypeFloat:
		return jen.Float64()
	case gen.TypeBool:
		return jen.Bool()
	case gen.TypeEnum:
		return jen.Id(GoName(fd.Enum.Name))
	case gen.TypeStruct:
		return jen.Op("*").Id(GoName(fd.Struct.Name))
	}
	return jen.Any()
}
