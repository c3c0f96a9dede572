// Package content serves the static blog and FAQ copy. Everything is parsed
// once at start-up and held in memory for the lifetime of the process.
package content

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"gopkg.in/yaml.v3"
	"vinreport-web/models"
)

const (
	blogFile = "content/blog.yaml"
	faqFile  = "content/faq.yaml"
)

var ErrPostNotFound = errors.New("blog post not found")

type Store struct {
	posts []models.BlogPost
	byID  map[string]*models.BlogPost
	faq   []models.FAQEntry
}

type blogDoc struct {
	Posts []models.BlogPost `yaml:"posts"`
}

type faqDoc struct {
	Entries []models.FAQEntry `yaml:"entries"`
}

func Load(fsys fs.FS) (*Store, error) {
	var blog blogDoc
	if err := decode(fsys, blogFile, &blog); err != nil {
		return nil, err
	}
	var faq faqDoc
	if err := decode(fsys, faqFile, &faq); err != nil {
		return nil, err
	}

	s := &Store{
		posts: blog.Posts,
		byID:  make(map[string]*models.BlogPost, len(blog.Posts)),
		faq:   faq.Entries,
	}

	sort.SliceStable(s.posts, func(i, j int) bool {
		return s.posts[i].Published.After(s.posts[j].Published)
	})
	for i := range s.posts {
		p := &s.posts[i]
		if p.ID == "" {
			return nil, fmt.Errorf("%s: post %q has no id", blogFile, p.Title)
		}
		if _, dup := s.byID[p.ID]; dup {
			return nil, fmt.Errorf("%s: duplicate post id %q", blogFile, p.ID)
		}
		s.byID[p.ID] = p
	}

	return s, nil
}

func decode(fsys fs.FS, name string, out interface{}) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}

// Posts returns all posts, newest first.
func (s *Store) Posts() []models.BlogPost {
	return s.posts
}

func (s *Store) Post(id string) (models.BlogPost, error) {
	p, ok := s.byID[id]
	if !ok {
		return models.BlogPost{}, ErrPostNotFound
	}
	return *p, nil
}

func (s *Store) FAQ() []models.FAQEntry {
	return s.faq
}
