// Package prayers injects the fixed liturgical prayers into a manifest.
//
// Templates are read from a JSON or YAML file shaped as
// {"templates": [{id, type, title, text}]}. The confiteor, creed, and Lord's
// prayer must be present; each becomes a section tagged "template:<id>" and
// is merged through manifest.Upsert, so re-injecting unchanged templates
// leaves hashes and attached audio untouched.
package prayers
