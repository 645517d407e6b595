package main

import "database/sql"

type TagRecordModel struct {
	id      string
	path    string
	tags    sql.NullString
	remark  sql.NullString
	updated sql.NullString
}
