/*
Package orm provides typed buckets on top of a key value store.

A ModelBucket stores protobuf encoded models under a name prefixed key and
maintains any number of secondary indexes. An index maps the value computed
from a model to the set of primary keys (a MultiRef) of all models producing
that value. Unique indexes refuse to reference more than one model.

	Primary key:  <bucket>:<key>
	Index key:    _i.<bucket>_<index>:<value>
*/
package orm
