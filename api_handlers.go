package main

import (
	"encoding/csv"
	"fmt"
	"html/template"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// TagServer holds the per-session state the handlers work against: the
// configuration, the image store and the parsed templates.
type TagServer struct {
	config    *ConfigFile
	store     *ImageStore
	templates *template.Template
	session   string
	log       *logrus.Entry
}

func newTagServer(configuration *ConfigFile, store *ImageStore) (*TagServer, error) {
	templates, err := template.ParseGlob("templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	session := uuid.New().String()
	return &TagServer{
		config:    configuration,
		store:     store,
		templates: templates,
		session:   session,
		log:       logrus.WithField("session", session),
	}, nil
}

func (s *TagServer) routes() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/", s.showIndex).Methods("GET")
	router.HandleFunc("/show_image", s.showImage).Methods("GET")
	router.HandleFunc("/advance", s.advanceImage).Methods("GET")
	router.HandleFunc("/store_tags", s.storeTags).Methods("POST")
	router.HandleFunc("/image_tags.csv", s.downloadTags).Methods("GET")
	router.PathPrefix("/static/").Handler(
		http.StripPrefix("/static/", http.FileServer(http.Dir("./static"))))
	return router
}

func (s *TagServer) sendError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		s.log.WithError(err).Error(message)
	} else {
		s.log.Warn(message)
	}
	http.Error(w, message, status)
}

// showIndex renders the tagging page. Without an image_id parameter it
// redirects to the first untagged image so an interrupted session resumes
// where it left off.
func (s *TagServer) showIndex(w http.ResponseWriter, r *http.Request) {
	imageId := r.URL.Query().Get("image_id")
	if imageId == "" {
		untagged := s.store.FirstUntagged()
		http.Redirect(w, r, "/?image_id="+untagged.Id, http.StatusFound)
		return
	}
	if dbErr := s.store.Seek(imageId); dbErr != nil {
		s.sendError(w, dbErr.status, dbErr.message, dbErr.err)
		return
	}
	image, _ := s.store.Current()
	if err := s.templates.ExecuteTemplate(w, "index.html", s.renderView(image)); err != nil {
		s.log.WithError(err).Error("Failed to render tag page")
	}
}

func (s *TagServer) renderView(image Image) TagPageView {
	selected := map[string]bool{}
	for _, name := range s.store.TagsFor(image.Path) {
		selected[name] = true
	}
	tags := make([]TagView, 0, len(s.config.TagSet))
	for _, tag := range s.config.TagSet {
		tags = append(tags, TagView{
			Name:     tag.Name,
			Shortcut: tag.Shortcut,
			Selected: selected[tag.Name],
		})
	}
	prev, next := s.store.Neighbors(image.Id)
	return TagPageView{
		Id:           image.Id,
		Path:         image.Path,
		Question:     s.config.Tagging.Question,
		Remark:       s.store.RemarkFor(image.Path),
		Tags:         tags,
		PrevId:       prev,
		NextId:       next,
		MultiSelect:  s.config.Tagging.MultiSelect,
		AllowRemarks: s.config.Tagging.AllowRemarks,
		MaxWidth:     s.config.Interface.MaxWidth,
		MaxHeight:    s.config.Interface.MaxHeight,
	}
}

func (s *TagServer) showImage(w http.ResponseWriter, r *http.Request) {
	imageId := r.URL.Query().Get("image_id")
	image, ok := s.store.Lookup(imageId)
	if !ok {
		s.sendError(w, http.StatusNotFound, fmt.Sprintf("Cannot find image with ID '%s'", imageId), nil)
		return
	}
	http.ServeFile(w, r, s.store.AbsPath(image))
}

func (s *TagServer) advanceImage(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if imageId := query.Get("image_id"); imageId != "" {
		if dbErr := s.store.Seek(imageId); dbErr != nil {
			s.sendError(w, dbErr.status, dbErr.message, dbErr.err)
			return
		}
	}
	var direction Direction
	switch query.Get("dir") {
	case "prev":
		direction = Prev
	case "next":
		direction = Next
	default:
		s.sendError(w, http.StatusBadRequest, "'dir' param must be of ('prev', 'next')", nil)
		return
	}
	image, ok := s.store.Advance(direction)
	if !ok {
		s.sendError(w, http.StatusNotFound, "No images available", nil)
		return
	}
	http.Redirect(w, r, "/?image_id="+image.Id, http.StatusFound)
}

// storeTags persists the submitted tag selection and moves on to the next
// image. On the last image the redirect lands back on that image.
func (s *TagServer) storeTags(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.sendError(w, http.StatusBadRequest, "Unable to parse form", err)
		return
	}
	imageId := r.PostForm.Get("id")
	image, ok := s.store.Lookup(imageId)
	if !ok {
		s.sendError(w, http.StatusNotFound, fmt.Sprintf("Cannot find image with ID '%s'", imageId), nil)
		return
	}
	tags := r.PostForm["tags"]
	remark := ""
	if s.config.Tagging.AllowRemarks {
		remark = r.PostForm.Get("remark")
	}
	if dbErr := s.store.SubmitTags(image.Path, tags, remark); dbErr != nil {
		s.sendError(w, dbErr.status, dbErr.message, dbErr.err)
		return
	}
	s.log.WithFields(logrus.Fields{"image": image.Path, "tags": tags}).Info("Stored tags")
	if dbErr := s.store.Seek(imageId); dbErr != nil {
		s.sendError(w, dbErr.status, dbErr.message, dbErr.err)
		return
	}
	next, _ := s.store.Advance(Next)
	http.Redirect(w, r, "/?image_id="+next.Id, http.StatusFound)
}

func (s *TagServer) downloadTags(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	writer := csv.NewWriter(w)
	writer.Write([]string{"id", "path", "tags", "remark", "updated"})
	for _, record := range s.store.Dump() {
		writer.Write([]string{
			record.id, record.path,
			record.tags.String, record.remark.String, record.updated.String,
		})
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		s.log.WithError(err).Error("Failed to write CSV export")
	}
}
