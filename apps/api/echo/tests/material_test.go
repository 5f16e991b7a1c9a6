package tests

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ecole/core/activity"
	"github.com/trezcool/ecole/core/material"
	"github.com/trezcool/ecole/core/user"
	"github.com/trezcool/ecole/services/filestore"
	"github.com/trezcool/ecole/tests"
)

func Test_materialApi_upload(t *testing.T) {
	app := setup(t)
	prof := app.createUser(t, "Marie", "marie@test.cd", user.RoleProfessor)
	student := app.createUser(t, "Hero", "hero@test.cd", user.RoleStudent)
	grp := testutil.CreateGroup(t, app.store.Groups, "6ème A")
	sub := testutil.CreateSubject(t, app.store.Subjects, "Physique", "PHYS")
	profCookie := app.login(t, prof)
	studentCookie := app.login(t, student)

	fields := map[string]string{"title": "Chapitre 1", "groupId": grp.ID, "subjectId": sub.ID}
	content := []byte("%PDF-1.4 chapitre 1")

	tests := []struct {
		name        string
		cookie      string
		fields      map[string]string
		fileName    string
		contentType string
		wantCode    int
		wantData    []byte
	}{
		{
			name: "students cannot upload", cookie: "student", fields: fields,
			fileName: "ch1.pdf", contentType: "application/pdf", wantCode: http.StatusForbidden,
		},
		{
			name: "file required", cookie: "prof", fields: fields, wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"file": "a file is required"}),
		},
		{
			name: "type not allowed", cookie: "prof", fields: fields,
			fileName: "notes.txt", contentType: "text/plain", wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"fileType": "file type not allowed"}),
		},
		{
			name: "visibility must be a boolean", cookie: "prof",
			fields:   map[string]string{"title": "Chapitre 1", "groupId": grp.ID, "subjectId": sub.ID, "isVisible": "maybe"},
			fileName: "ch1.pdf", contentType: "application/pdf", wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"isVisible": "isVisible must be a boolean"}),
		},
		{
			name: "title required", cookie: "prof", fields: map[string]string{"groupId": grp.ID, "subjectId": sub.ID},
			fileName: "ch1.pdf", contentType: "application/pdf", wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"title": "this field is required"}),
		},
		{
			name: "unknown subject", cookie: "prof",
			fields:   map[string]string{"title": "Chapitre 1", "groupId": grp.ID, "subjectId": "5b3f8bd4-8b0a-4f57-9b8e-1f1e1b2d3c4d"},
			fileName: "ch1.pdf", contentType: "application/pdf", wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"subjectId": "subject not found"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cookie := profCookie
			if tt.cookie == "student" {
				cookie = studentCookie
			}
			rec := app.do(newMultipartRequest(t, "/api/materials/upload", cookie, tt.fields, tt.fileName, tt.contentType, content))
			checkCodeAndData(t, httpTest{wantCode: tt.wantCode, wantData: tt.wantData}, rec)
		})
	}
	assert.Empty(t, app.logs(t, activity.QueryFilter{EntityType: activity.EntityMaterial}))

	var m material.Material
	rec := app.do(newMultipartRequest(t, "/api/materials/upload", profCookie, fields, "ch1.pdf", "application/pdf", content))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	decode(t, rec, &m)
	assert.Equal(t, "ch1.pdf", m.FileName)
	assert.Equal(t, "application/pdf", m.FileType)
	assert.EqualValues(t, len(content), m.FileSize)
	assert.Equal(t, prof.ID, m.UploadedBy)
	assert.True(t, m.IsVisible)

	t.Run("download", func(t *testing.T) {
		rec := app.do(newRequest(http.MethodGet, "/api/materials/"+m.ID+"/download", studentCookie, nil))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, content, rec.Body.Bytes())
		assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="ch1.pdf"`)
	})

	t.Run("file url", func(t *testing.T) {
		assert.True(t, strings.HasPrefix(m.FileURL, filestore.LocalURLPrefix+"/materials/"+grp.ID+"/"), m.FileURL)
		rec := app.do(newRequest(http.MethodGet, m.FileURL, studentCookie, nil))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, content, rec.Body.Bytes())

		app.run(t, httpTest{path: m.FileURL, wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errAuthRequired)})
	})

	t.Run("dotted file name", func(t *testing.T) {
		rec := app.do(newMultipartRequest(t, "/api/materials/upload", profCookie, fields, "notes..v2.pdf", "application/pdf", content))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var dotted material.Material
		decode(t, rec, &dotted)
		assert.Equal(t, "notes..v2.pdf", dotted.FileName)
		assert.True(t, strings.HasSuffix(dotted.FileURL, "/notes..v2.pdf"), dotted.FileURL)

		rec = app.do(newRequest(http.MethodGet, "/api/materials/"+dotted.ID+"/download", studentCookie, nil))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, content, rec.Body.Bytes())

		app.run(t, httpTest{method: http.MethodDelete, path: "/api/materials/" + dotted.ID, cookie: profCookie, wantCode: http.StatusNoContent})
		app.run(t, httpTest{path: dotted.FileURL, cookie: studentCookie, wantCode: http.StatusNotFound})
	})

	t.Run("list", func(t *testing.T) {
		app.run(t, httpTest{path: "/api/materials?groupId=" + grp.ID, cookie: studentCookie, wantCode: http.StatusOK, wantData: marshalList(t, m)})
		app.run(t, httpTest{path: "/api/materials?subjectId=" + grp.ID, cookie: studentCookie, wantCode: http.StatusOK, wantData: marshalList(t)})
	})

	t.Run("delete", func(t *testing.T) {
		app.run(t, httpTest{method: http.MethodDelete, path: "/api/materials/" + m.ID, cookie: studentCookie, wantCode: http.StatusForbidden})
		app.run(t, httpTest{method: http.MethodDelete, path: "/api/materials/" + m.ID, cookie: profCookie, wantCode: http.StatusNoContent})
		app.run(t, httpTest{path: "/api/materials/" + m.ID + "/download", cookie: studentCookie, wantCode: http.StatusNotFound})

		actions := make(map[string]int)
		for _, l := range app.logs(t, activity.QueryFilter{EntityID: m.ID}) {
			actions[l.Action]++
		}
		assert.Equal(t, map[string]int{activity.ActionUploadMaterial: 1, activity.ActionDeleteMaterial: 1}, actions)
	})
}

func Test_materialApi_link(t *testing.T) {
	app := setup(t)
	prof := app.createUser(t, "Marie", "marie@test.cd", user.RoleProfessor)
	grp := testutil.CreateGroup(t, app.store.Groups, "6ème A")
	sub := testutil.CreateSubject(t, app.store.Subjects, "Physique", "PHYS")
	profCookie := app.login(t, prof)

	newMaterial := func(fileURL string) []byte {
		return marshalObj(t, map[string]interface{}{
			"title": "Vidéo", "fileName": "cours.mp4", "fileUrl": fileURL, "fileType": "video/mp4",
			"fileSize": 1024, "groupId": grp.ID, "subjectId": sub.ID,
		})
	}

	app.run(t, httpTest{
		method: http.MethodPost, path: "/api/materials", cookie: profCookie, body: newMaterial(""),
		wantCode: http.StatusBadRequest,
	})

	var m material.Material
	rec := app.run(t, httpTest{
		method: http.MethodPost, path: "/api/materials", cookie: profCookie,
		body: newMaterial("https://videos.example.com/cours.mp4"), wantCode: http.StatusCreated,
	})
	decode(t, rec, &m)

	rec = app.do(newRequest(http.MethodGet, "/api/materials/"+m.ID+"/download", profCookie, nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://videos.example.com/cours.mp4", rec.Header().Get("Location"))

	rec = app.run(t, httpTest{
		method: http.MethodPut, path: "/api/materials/" + m.ID, cookie: profCookie,
		body: []byte(`{"isVisible":false}`), wantCode: http.StatusOK,
	})
	var got material.Material
	decode(t, rec, &got)
	assert.False(t, got.IsVisible)
	assert.Equal(t, m.FileURL, got.FileURL)
}
