package domain

// District - район, используется только для подписи фильтра.
type District struct {
	ID   string
	Name string
}

// FilterPill - активный фильтр в виде "таблетки" с кнопкой сброса.
type FilterPill struct {
	Key   string
	Value string
	Label string
}
