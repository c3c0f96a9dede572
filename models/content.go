package models

import "time"

type BlogPost struct {
	ID        string    `yaml:"id"`
	Title     string    `yaml:"title"`
	Summary   string    `yaml:"summary"`
	Author    string    `yaml:"author"`
	Published time.Time `yaml:"published"`
	Body      []string  `yaml:"body"`
}

type FAQEntry struct {
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
}
