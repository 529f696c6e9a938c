// Package fusion provides typed, schema-validated values that become
// immutable on demand, plus a canonical JSON reader and writer for them.
//
//   - Value is a tagged (Kind, payload) pair. Domain adds a qualifier and a
//     range and is the unit of conversion (From) and validation (Validate).
//   - ObjectSchema describes composite objects; ObjectType is the generic
//     dense-storage implementation and the factory the reader uses.
//   - List, Map, Blob and objects follow the INIT -> WRITE -> READ lifecycle
//     of package iwr. Anything stored in a Value is READ.
//   - Writer emits the canonical form; Reader parses JSON guided by a domain.
//
// Design policy:
//   - Keep the public API in the root package; scanners and CLI plumbing live
//     under internal/.
//   - Errors match exactly one class sentinel (ErrConfig, ErrCoercion,
//     ErrValidation, ErrLifecycle, ErrParse) through errors.Is.
//     ErrNoSuchField refines ErrConfig.
//
// Typical usage:
//
//	s := fusion.NewSchema("person").
//		FieldOf("id", "STRING").Key().
//		FieldOf("age", "INTEGER", 0, 150).
//		MustBuild()
//	person := fusion.NewObjectType(s)
//	fusion.MustRegister(person)
//
//	p := person.Make()
//	_ = p.Set(0, "ada")
//	_ = p.Set(1, 36)
//	_ = p.DoneWrite()
//	out, _ := fusion.Marshal(fusion.MustOf(p)) // {"id":"ada","age":36}
//
//	v, err := fusion.Unmarshal(out, fusion.MustDomain(fusion.KindObject, "person"))
package fusion
