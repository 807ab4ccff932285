package meta

// Object is a reference-counted, shared-mutable instance of some reflected
// type. It carries its own descriptor back-pointer and the memory-pool
// identifier it was instantiated from.
type Object interface {
	Descriptor() *Descriptor
	Pool() uint32
	SetPool(pool uint32)
	SetField(name string, value any) error
	GetField(name string) (any, bool)
}

// GenericObject is the fallback object representation for any type without
// a hand-written host constructor: it stores fields as a plain name→value
// map, keyed by the field name the deserializer passes to SetField.
type GenericObject struct {
	desc   *Descriptor
	pool   uint32
	fields map[string]any
}

func newGenericObject(desc *Descriptor, pool uint32) Object {
	return &GenericObject{desc: desc, pool: pool, fields: make(map[string]any)}
}

func (o *GenericObject) Descriptor() *Descriptor { return o.desc }
func (o *GenericObject) Pool() uint32             { return o.pool }
func (o *GenericObject) SetPool(pool uint32)      { o.pool = pool }

func (o *GenericObject) SetField(name string, value any) error {
	o.fields[name] = value
	return nil
}

func (o *GenericObject) GetField(name string) (any, bool) {
	v, ok := o.fields[name]
	return v, ok
}
