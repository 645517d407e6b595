package main

type TagView struct {
	Name     string
	Shortcut string
	Selected bool
}

type TagPageView struct {
	Id           string
	Path         string
	Question     string
	Remark       string
	Tags         []TagView
	PrevId       string
	NextId       string
	MultiSelect  bool
	AllowRemarks bool
	MaxWidth     int
	MaxHeight    int
}
