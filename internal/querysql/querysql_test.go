package querysql

import (
	"math"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/catsite/internal/ir"
	"github.com/roach88/catsite/internal/queryir"
)

func catSchema() *queryir.Schema {
	return queryir.NewSchema("catsite_", []queryir.Table{
		{Name: "cats", Fields: []queryir.Field{
			{Name: "id"},
			{Name: "name"},
			{Name: "color"},
			{Name: "owner", Ref: "people"},
			{Name: "mother", Ref: "cats"},
			{Name: "_1_name"},
		}},
		{Name: "people", Fields: []queryir.Field{
			{Name: "id"},
			{Name: "name"},
			{Name: "city", Ref: "cities"},
		}},
		{Name: "cities", SQL: "(SELECT id, name FROM {prefix}towns)", Fields: []queryir.Field{
			{Name: "id"},
			{Name: "name"},
		}},
	})
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestDialectFor(t *testing.T) {
	tests := []struct {
		driver string
		want   string
	}{
		{"sqlite3", "sqlite"},
		{"sqlite", "sqlite"},
		{"mysql", "mysql"},
		{"pgx", "postgres"},
		{"postgres", "postgres"},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			d, err := DialectFor(tt.driver)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Name())
		})
	}

	_, err := DialectFor("mssql")
	assert.Error(t, err)
}

func TestDialect_Escaping(t *testing.T) {
	assert.Equal(t, "`we``ird`", SQLite{}.QuoteIdent("we`ird"))
	assert.Equal(t, `"we""ird"`, Postgres{}.QuoteIdent(`we"ird`))

	assert.Equal(t, "it''s", SQLite{}.EscapeString("it's"))
	assert.Equal(t, `it\'s\\`, MySQL{}.EscapeString(`it's\`))
	assert.Equal(t, "a\\nb", MySQL{}.EscapeString("a\nb"))

	assert.Equal(t, `x LIKE '50\%%' ESCAPE '\'`, SQLite{}.LikePrefix("x", "50%"))
	assert.Equal(t, `x LIKE '\\_%'`, MySQL{}.LikePrefix("x", "_"))
	assert.Equal(t, `x LIKE 'O''%'`, Postgres{}.LikePrefix("x", "O'"))
}

func TestSource(t *testing.T) {
	s := catSchema()
	assert.Equal(t, "`catsite_cats`", Source(s, "cats", SQLite{}))
	assert.Equal(t, "(SELECT id, name FROM catsite_towns)", Source(s, "cities", SQLite{}))
}

func TestSelect_PagedJoins(t *testing.T) {
	cond := NewPaged(ByID{PrimaryKey: "id", Value: 7}, 10, 3)
	q, ok := Select(catSchema(), "cats", []string{"name", "owner->name", "owner->city->name"}, "id", cond, SQLite{})
	require.True(t, ok)

	assert.Equal(t, map[string]string{
		"name":              "name",
		"owner->name":       "owner__name",
		"owner->city->name": "owner__city__name",
	}, q.Aliases)
	assert.Empty(t, q.Dropped)

	newGoldie(t).Assert(t, "select_paged_sqlite", []byte(q.SQL+"\n"))
}

func TestSelect_SelfReference(t *testing.T) {
	q, ok := Select(catSchema(), "cats", []string{"name", "mother->name"}, "id", ByID{PrimaryKey: "id", Value: 1}, SQLite{})
	require.True(t, ok)

	assert.Equal(t,
		"SELECT `__t0`.`name` AS `name`, `__t1`.`name` AS `mother__name` "+
			"FROM `catsite_cats` AS `__t0` "+
			"LEFT JOIN `catsite_cats` AS `__t1` ON `__t0`.`mother` = `__t1`.`id` "+
			"WHERE `__t0`.`id` = 1",
		q.SQL)
}

func TestSelect_Fallbacks(t *testing.T) {
	s := catSchema()

	_, ok := Select(s, "cats", []string{"bogus"}, "id", nil, SQLite{})
	assert.False(t, ok, "nothing resolved, nothing to query")

	q, ok := Select(s, "cats", []string{"name"}, "id", nil, SQLite{})
	require.True(t, ok)
	assert.Equal(t, "SELECT `__t0`.`name` AS `name` FROM `catsite_cats` AS `__t0` WHERE FALSE", q.SQL)

	q, ok = Select(s, "cats", []string{"name", "nope"}, "id", ByKey{PrimaryKey: "id", Field: "whiskers", Value: 2}, SQLite{})
	require.True(t, ok)
	assert.Equal(t, "SELECT `__t0`.`name` AS `name` FROM `catsite_cats` AS `__t0` WHERE FALSE", q.SQL)
	assert.Equal(t, []string{"nope"}, q.Dropped)
}

func TestSelect_ByLetter(t *testing.T) {
	s := catSchema()

	q, ok := Select(s, "cats", []string{"name"}, "id", NewByLetter("id", "name", "_1_", "bob"), SQLite{})
	require.True(t, ok)
	assert.Equal(t,
		"SELECT `__t0`.`name` AS `name` FROM `catsite_cats` AS `__t0` "+
			"WHERE `__t0`.`_1_name` = 'b' ORDER BY `__t0`.`name`, `__t0`.`id` ASC",
		q.SQL)

	// people has no first-letter column, so the prefix scan is used.
	q, ok = Select(s, "cats", []string{"owner->name"}, "id", NewByLetter("id", "owner->name", "_1_", "_x"), Postgres{})
	require.True(t, ok)
	assert.Equal(t,
		`SELECT "__t1"."name" AS "owner__name" FROM "catsite_cats" AS "__t0" `+
			`LEFT JOIN "catsite_people" AS "__t1" ON "__t0"."owner" = "__t1"."id" `+
			`WHERE "__t1"."name" LIKE '\_%' ORDER BY "__t1"."name", "__t0"."id" ASC`,
		q.SQL)

	q, ok = Select(s, "people", []string{"name"}, "id", NewByLetter("id", "name", "", ""), SQLite{})
	require.True(t, ok)
	assert.Equal(t,
		"SELECT `__t0`.`name` AS `name` FROM `catsite_people` AS `__t0` "+
			"WHERE `__t0`.`name` IS NULL ORDER BY `__t0`.`name`, `__t0`.`id` ASC",
		q.SQL)
}

func TestByLetter_Value(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		letter  string
		escaped string
		url     string
	}{
		{"ascii", "bob", "b", "b", "b"},
		{"empty", "", "", "", ""},
		{"multibyte", "Ödön", "Ö", "Ö", "%C3%96"},
		{"decomposed", "e\u0301lan", "\u00e9", "\u00e9", "%C3%A9"},
		{"markup", "<b>", "<", "&lt;", "%3C"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewByLetter("id", "name", "", tt.value)
			assert.Equal(t, tt.letter, c.Value)
			assert.Equal(t, map[string]ir.Value{
				"_letter1":    ir.String(tt.escaped),
				"_letter1url": ir.String(tt.url),
			}, c.Export())
		})
	}

	assert.Equal(t, "owner->_1_name", NewByLetter("id", "owner->name", "_1_", "x").Field1)
	assert.Equal(t, "", NewByLetter("id", "name", "", "x").Field1)
}

func TestBySibling(t *testing.T) {
	values := map[string]ir.Value{
		"id":    ir.String("4"),
		"color": ir.String("it's"),
		"owner": ir.Null{},
	}

	_, err := NewBySibling("id", nil, values, "", false)
	assert.ErrorIs(t, err, ErrConditionUnavailable)

	_, err = NewBySibling("id", []string{"color", "owner"}, values, "", false)
	assert.ErrorIs(t, err, ErrConditionUnavailable)

	cond, err := NewBySibling("id", []string{"color", "owner"}, values, "", true)
	require.NoError(t, err)
	assert.Nil(t, cond.Export())

	q, ok := Select(catSchema(), "cats", []string{"name"}, "id", cond, MySQL{})
	require.True(t, ok)
	assert.Equal(t,
		"SELECT `__t0`.`name` AS `name` FROM `catsite_cats` AS `__t0` "+
			"WHERE `__t0`.`color` = 'it\\'s' AND `__t0`.`owner` IS NULL AND `__t0`.`id` <> '4' "+
			"ORDER BY `__t0`.`id` ASC",
		q.SQL)

	cond.Sort = "whiskers"
	q, ok = Select(catSchema(), "cats", []string{"name"}, "id", cond, MySQL{})
	require.True(t, ok)
	assert.Contains(t, q.SQL, "WHERE FALSE", "a missing sort column matches nothing")
}

func TestByKey(t *testing.T) {
	cond := ByKey{PrimaryKey: "id", Field: "owner", Sort: "name", Value: 12}
	assert.Equal(t, map[string]ir.Value{"_key": ir.Int(12)}, cond.Export())

	cols := Columns{"id": "t.id", "owner": "t.owner", "name": "t.name"}
	assert.Equal(t, " WHERE t.owner = 12 ORDER BY t.name, t.id ASC", WhereClause(cond, cols, SQLite{}))
}

func TestPaged(t *testing.T) {
	base := ByID{PrimaryKey: "id", Value: 7}
	cols := Columns{"id": "id"}

	tests := []struct {
		name       string
		step, page int64
		where      string
		export     map[string]ir.Value
	}{
		{
			name: "third page", step: 10, page: 3,
			where:  " WHERE id = 7 LIMIT 10 OFFSET 20",
			export: map[string]ir.Value{"_id": ir.Int(7), "_limit": ir.Int(10), "_page": ir.Int(3), "_offset": ir.Int(20)},
		},
		{
			name: "first page has no offset", step: 5, page: 1,
			where:  " WHERE id = 7 LIMIT 5",
			export: map[string]ir.Value{"_id": ir.Int(7), "_limit": ir.Int(5), "_page": ir.Int(1), "_offset": ir.Int(0)},
		},
		{
			name: "page below one", step: 5, page: -3,
			where:  " WHERE id = 7 LIMIT 5",
			export: map[string]ir.Value{"_id": ir.Int(7), "_limit": ir.Int(5), "_page": ir.Int(1), "_offset": ir.Int(0)},
		},
		{
			name: "zero step", step: 0, page: 4,
			where:  " WHERE id = 7",
			export: map[string]ir.Value{"_id": ir.Int(7), "_limit": ir.Int(0), "_page": ir.Int(1), "_offset": ir.Int(0)},
		},
		{
			name: "negative step", step: -2, page: 4,
			where:  " WHERE id = 7",
			export: map[string]ir.Value{"_id": ir.Int(7), "_limit": ir.Int(0), "_page": ir.Int(1), "_offset": ir.Int(0)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPaged(base, tt.step, tt.page)
			assert.Equal(t, tt.where, WhereClause(p, cols, SQLite{}))
			assert.Equal(t, tt.export, p.Export())
		})
	}

	p := NewPaged(base, 2, math.MaxInt64)
	assert.Equal(t, int64(math.MaxInt64/2), p.Page)
	assert.Positive(t, p.Offset(), "clamped page must not overflow")

	orphan := NewPaged(nil, 10, 2)
	assert.Equal(t, " WHERE FALSE", WhereClause(orphan, cols, SQLite{}))
	assert.Empty(t, orphan.Fields())
	assert.Equal(t, map[string]ir.Value{"_limit": ir.Int(10), "_page": ir.Int(2), "_offset": ir.Int(10)}, orphan.Export())
}

func TestWhereClause_Nil(t *testing.T) {
	assert.Equal(t, " WHERE FALSE", WhereClause(nil, Columns{}, SQLite{}))
	assert.Equal(t, " WHERE FALSE", WhereClause(ByID{PrimaryKey: "id", Value: 1}, Columns{}, SQLite{}))
}

func TestAlphabetSelect(t *testing.T) {
	s := catSchema()

	sql, ok := AlphabetSelect(s, "cats", "name", "id", "_1_", Alphabet{Count: true, Equal: true, Test: "Bob"}, MySQL{})
	require.True(t, ok)
	newGoldie(t).Assert(t, "alphabet_mysql", []byte(sql+"\n"))

	sql, ok = AlphabetSelect(s, "people", "name", "id", "_1_", Alphabet{}, SQLite{})
	require.True(t, ok)
	assert.Equal(t, "SELECT DISTINCT substr(`name`, 1, 1) AS `_a` FROM `catsite_people` ORDER BY `_a` ASC", sql)

	sql, ok = AlphabetSelect(s, "people", "name", "id", "", Alphabet{Equal: true}, Postgres{})
	require.True(t, ok)
	assert.Equal(t,
		`SELECT LEFT("name", 1) AS "_a", ("name" IS NULL) AS "_e" FROM "catsite_people" GROUP BY "_a" ORDER BY "_a" ASC`,
		sql)

	_, ok = AlphabetSelect(s, "cats", "whiskers", "id", "", Alphabet{}, SQLite{})
	assert.False(t, ok)
}

func TestTotalsSelect(t *testing.T) {
	s := catSchema()
	cond := NewPaged(ByKey{PrimaryKey: "id", Field: "mother", Sort: "name", Value: 3}, 5, 2)

	q, ok := TotalsSelect(s, "cats", []string{"_c", "_c:owner->name", "id", "bogus"}, "id", cond, Totals{}, SQLite{})
	require.True(t, ok)
	assert.Equal(t, map[string]string{
		"_c":             "_c",
		"_c:owner->name": "_c_owner__name",
		"id":             "id",
	}, q.Aliases)
	assert.Equal(t, []string{"bogus"}, q.Dropped)
	newGoldie(t).Assert(t, "totals_sqlite", []byte(q.SQL+"\n"))
}

func TestTotalsSelect_Modes(t *testing.T) {
	s := catSchema()

	q, ok := TotalsSelect(s, "cats", []string{"n"}, "id", nil, Totals{CountName: "n"}, SQLite{})
	require.True(t, ok)
	assert.Equal(t, "SELECT COUNT(*) AS `_c` FROM `catsite_cats` AS `__t0` WHERE FALSE", q.SQL)
	assert.Equal(t, map[string]string{"n": "_c"}, q.Aliases)

	q, ok = TotalsSelect(s, "cats", []string{"color"}, "id", ByID{PrimaryKey: "id", Value: 2}, Totals{CountAll: true}, SQLite{})
	require.True(t, ok)
	assert.Equal(t, "SELECT COUNT(`__t0`.`color`) AS `color` FROM `catsite_cats` AS `__t0` WHERE `__t0`.`id` = 2", q.SQL)

	_, ok = TotalsSelect(s, "cats", []string{"bogus"}, "id", nil, Totals{}, SQLite{})
	assert.False(t, ok)
}
