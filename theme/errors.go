package theme

import "errors"

var (
	//ErrUnsupportedVersion 主题版本过高
	ErrUnsupportedVersion = errors.New("theme: unsupported version")
	//ErrMissingAttribute 缺少必需属性
	ErrMissingAttribute = errors.New("theme: missing attribute")
	//ErrInvalidZoom 级别范围错误
	ErrInvalidZoom = errors.New("theme: invalid zoom range")
	//ErrUnknownValue 未知属性值
	ErrUnknownValue = errors.New("theme: unknown value")
	//ErrUnknownAttribute 未知属性
	ErrUnknownAttribute = errors.New("theme: unknown attribute")
	//ErrUnknownElement 未知元素
	ErrUnknownElement = errors.New("theme: unknown element")
	//ErrInvalidDocument 文档结构错误
	ErrInvalidDocument = errors.New("theme: invalid document")
)
