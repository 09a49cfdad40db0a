package godto

import (
	"errors"
	"reflect"

	"github.com/reoring/godto/format"
)

// FromFormat decodes data with the decoder installed for name and runs the
// input pipeline. Malformed text decodes to an empty map; a missing decoder
// is an unsupported_format error.
func FromFormat[T any](name string, data []byte, opts ...LoadOpt) (*DTO[T], error) {
	m, err := format.DecodeMap(name, data)
	if err != nil {
		return nil, unsupported[T](name, err)
	}
	return FromMap[T](m, opts...)
}

// FromJSON loads a DTO from a JSON object.
func FromJSON[T any](data []byte, opts ...LoadOpt) (*DTO[T], error) {
	return FromFormat[T](format.JSON, data, opts...)
}

// FromXML loads a DTO from the children of an XML root element.
func FromXML[T any](data []byte, opts ...LoadOpt) (*DTO[T], error) {
	return FromFormat[T](format.XML, data, opts...)
}

// FromYAML loads a DTO from a YAML mapping.
func FromYAML[T any](data []byte, opts ...LoadOpt) (*DTO[T], error) {
	return FromFormat[T](format.YAML, data, opts...)
}

// FromCSV loads a DTO from the first data row of a CSV document.
func FromCSV[T any](data []byte, opts ...LoadOpt) (*DTO[T], error) {
	return FromFormat[T](format.CSV, data, opts...)
}

// CollectionFromFormat decodes a list of objects (a JSON array, CSV rows,
// repeated XML elements, a YAML sequence) and loads each one.
func CollectionFromFormat[T any](name string, data []byte, opts ...LoadOpt) (*Collection[T], error) {
	rows, err := format.DecodeList(name, data)
	if err != nil {
		return nil, unsupported[T](name, err)
	}
	return CollectionFromMaps[T](rows, opts...)
}

// CollectionFromJSON loads a collection from a JSON array.
func CollectionFromJSON[T any](data []byte, opts ...LoadOpt) (*Collection[T], error) {
	return CollectionFromFormat[T](format.JSON, data, opts...)
}

// CollectionFromCSV loads a collection with one element per CSV row.
func CollectionFromCSV[T any](data []byte, opts ...LoadOpt) (*Collection[T], error) {
	return CollectionFromFormat[T](format.CSV, data, opts...)
}

// CollectionFromYAML loads a collection from a YAML sequence.
func CollectionFromYAML[T any](data []byte, opts ...LoadOpt) (*Collection[T], error) {
	return CollectionFromFormat[T](format.YAML, data, opts...)
}

// CollectionFromXML loads a collection from repeated XML elements.
func CollectionFromXML[T any](data []byte, opts ...LoadOpt) (*Collection[T], error) {
	return CollectionFromFormat[T](format.XML, data, opts...)
}

func unsupported[T any](name string, err error) error {
	if !errors.Is(err, format.ErrUnsupported) {
		return err
	}
	return &Error{
		Code:   CodeUnsupportedFormat,
		Type:   typeLabel(reflect.TypeFor[T]()),
		Format: name,
		Cause:  err,
	}
}
