package logsvc

import (
	"bytes"
	"fmt"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/user"
)

func TestRollbarLogger(t *testing.T) {
	buf := new(bytes.Buffer)
	lgr := NewRollbarLogger(log.New(buf, "", 0), core.NewConfig())
	lgr.Enable(false)

	prof := user.User{ID: "prof-1", FirstName: "Marie", LastName: "Curie", Email: "marie@test.cd"}
	lgr.Error("saving grade", fmt.Errorf("connection reset"), nil, prof, map[string]interface{}{"gradeId": "g-1"})
	assert.Equal(t, "[ERROR] saving grade (user prof-1)\nconnection reset\nmap[gradeId:g-1]\n", buf.String())
	assert.NotContains(t, buf.String(), prof.Email)

	buf.Reset()
	lgr.Info("3 default subjects created")
	assert.Equal(t, "[INFO] 3 default subjects created\n", buf.String())
}

func TestEntry(t *testing.T) {
	first := user.User{ID: "u-1"}
	second := user.User{ID: "u-2"}
	err := fmt.Errorf("boom")

	args, actor := entry("msg", []interface{}{nil, &first, second, err})
	assert.Equal(t, []interface{}{"msg", err}, args)
	if assert.NotNil(t, actor) {
		assert.Equal(t, "u-1", actor.ID)
	}

	args, actor = entry("msg", []interface{}{(*user.User)(nil)})
	assert.Equal(t, []interface{}{"msg"}, args)
	assert.Nil(t, actor)
}
