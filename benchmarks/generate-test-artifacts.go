// generate-test-artifacts.go creates tagged artifacts of various sizes for benchmarking.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adammathes/tagverify/pkg/document"
	"github.com/adammathes/tagverify/pkg/validate"
)

func main() {
	dir := "benchmarks/corpus"
	os.MkdirAll(dir, 0755)

	sizes := []struct {
		name      string
		pages     int
		paraPerPg int
	}{
		{"tiny-1pg", 1, 5},
		{"small-5pg", 5, 20},
		{"medium-20pg", 20, 50},
		{"large-50pg", 50, 100},
		{"xlarge-100pg", 100, 200},
	}

	for _, s := range sizes {
		path := filepath.Join(dir, s.name+".yaml")
		if err := generateArtifact(path, s.pages, s.paraPerPg); err != nil {
			fmt.Fprintf(os.Stderr, "Error generating %s: %v\n", path, err)
			os.Exit(1)
		}
		fi, _ := os.Stat(path)
		fmt.Printf("Generated %s (%d KB)\n", path, fi.Size()/1024)
	}
}

var loremParagraphs = []string{
	"Lorem ipsum dolor sit amet, consectetur adipiscing elit. Sed do eiusmod tempor incididunt ut labore et dolore magna aliqua.",
	"Duis aute irure dolor in reprehenderit in voluptate velit esse cillum dolore eu fugiat nulla pariatur.",
	"Curabitur pretium tincidunt lacus. Nulla gravida orci a odio. Nullam varius, turpis et commodo pharetra.",
	"Praesent blandit dolor. Sed non quam. In vel mi sit amet augue congue elementum.",
	"Vestibulum tincidunt malesuada tellus. Ut ultrices ultrices enim. Curabitur sit amet mauris.",
}

// generateArtifact produces a conforming UA-2 artifact through the embedded
// checker, so every content write passes the immediate checks.
func generateArtifact(path string, pages, parasPerPage int) error {
	doc := document.New(document.UA2)
	doc.SetLang("en", document.UTF16BE)
	doc.Info = map[string]document.TextString{
		"Title": document.NewTextString(fmt.Sprintf("Benchmark artifact (%d pages)", pages), document.UTF16BE),
	}
	c := validate.NewChecker(doc, validate.Options{})
	cur := doc.Tree.Cursor()

	var headings []document.NodeID
	for i := 1; i <= pages; i++ {
		canvas := c.NewPage(i)

		cur.MoveToRoot()
		cur.AddTag("Sect")
		cur.AddTag("H1")
		headings = append(headings, cur.CreateReference())
		if err := canvas.OpenTag(cur.TagReference(canvas.Stream())); err != nil {
			return err
		}
		canvas.ShowText(fmt.Sprintf("Page %d", i))
		if err := canvas.CloseTag(); err != nil {
			return err
		}
		cur.MoveToParent()

		for j := 0; j < parasPerPage; j++ {
			role := "P"
			if j%7 == 6 {
				role = "Figure"
			}
			cur.AddTag(role)
			if role == "Figure" {
				cur.SetAlt("Illustration").SetAttr("Placement", "Block")
			}
			if err := canvas.OpenTag(cur.TagReference(canvas.Stream())); err != nil {
				return err
			}
			if role == "Figure" {
				canvas.Draw("Im1")
			} else {
				canvas.ShowText(loremParagraphs[j%len(loremParagraphs)])
			}
			if err := canvas.CloseTag(); err != nil {
				return err
			}
			cur.MoveToParent()
		}
	}

	cur.MoveToRoot()
	cur.AddTag("TOC")
	for _, h := range headings {
		cur.AddTag("TOCI").AddTag("Reference")
		if err := cur.AddRef(h); err != nil {
			return err
		}
		cur.MoveToParent()
		cur.MoveToParent()
	}

	r, err := c.Close()
	if err != nil {
		return err
	}
	if !r.IsValid() {
		return fmt.Errorf("generated artifact is not conforming: %v", r.Messages)
	}
	return doc.Save(path)
}
