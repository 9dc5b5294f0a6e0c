package config

// FieldKind 字段类型：标量、嵌套子配置、派生字段
type FieldKind int

const (
	// FieldScalar 普通标量字段，直接按键名查询各配置源
	FieldScalar FieldKind = iota
	// FieldNested 嵌套子配置，带有自己的键前缀，逐个子字段解析
	FieldNested
	// FieldDerived 派生字段：显式提供时原样采用，否则由兄弟字段组装。
	// 派生字段在同级标量字段全部解析完成之后才求值（两遍解析）。
	FieldDerived
)

// Field 单个字段的描述符。
// 原实现通过运行时反射判断"字段是否本身是一个配置类"，
// 这里改为显式的描述符列表：构建一次，解析器据此遍历。
type Field struct {
	Key      string // 扁平键名，小写，不含前缀
	Kind     FieldKind
	Required bool // 必填：所有配置源合并后仍未命中则解析失败

	Default    string // 最低优先级的声明默认值
	HasDefault bool

	// Set 标量/派生字段的赋值回调（内部用 cast 做类型转换）
	Set func(value string) error
	// Derive 派生字段的组装回调，仅在配置源未显式提供时调用
	Derive func() error
	// Nested 嵌套子配置的 schema
	Nested *Schema
}

// Schema 一个配置段的完整描述：键前缀加字段列表。
// 前缀是绝对前缀（如 postgres_master_），不与父级前缀叠加，
// 与环境变量 POSTGRES_MASTER_HOST 的命名习惯保持一致。
type Schema struct {
	Prefix string
	Fields []Field
}

// scalar 构造标量字段描述符
func scalar(key string, set func(string) error) Field {
	return Field{Key: key, Kind: FieldScalar, Set: set}
}

// scalarDefault 构造带默认值的标量字段描述符
func scalarDefault(key, def string, set func(string) error) Field {
	return Field{Key: key, Kind: FieldScalar, Default: def, HasDefault: true, Set: set}
}

// required 构造必填标量字段描述符
func required(key string, set func(string) error) Field {
	return Field{Key: key, Kind: FieldScalar, Required: true, Set: set}
}

// derived 构造派生字段描述符
func derived(key string, set func(string) error, derive func() error) Field {
	return Field{Key: key, Kind: FieldDerived, Set: set, Derive: derive}
}

// nested 构造嵌套子配置字段描述符
func nested(key string, s *Schema) Field {
	return Field{Key: key, Kind: FieldNested, Nested: s}
}

// walkDefaults 收集 schema 树上所有声明的默认值，键为完整扁平键名
func walkDefaults(s *Schema, out map[string]string) {
	for _, f := range s.Fields {
		switch f.Kind {
		case FieldNested:
			walkDefaults(f.Nested, out)
		default:
			if f.HasDefault {
				out[s.Prefix+f.Key] = f.Default
			}
		}
	}
}
