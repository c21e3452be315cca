package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	// report json field names rather than Go struct field names
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// OK writes a 200 response with ok:true merged into body
func OK(c *gin.Context, body gin.H) {
	out := gin.H{"ok": true}
	for k, v := range body {
		out[k] = v
	}
	c.JSON(http.StatusOK, out)
}

// BadRequest writes a 400 validation failure
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": message})
}

// Error writes an error response with the underlying message
func Error(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"ok": false, "error": err.Error()})
}

// BindJSON decodes and validates the request body into obj.
// On failure it writes a 400 naming the offending fields and returns false.
func BindJSON(c *gin.Context, obj any) bool {
	err := c.ShouldBindJSON(obj)
	if errors.Is(err, io.EOF) {
		// empty body: report which required fields are missing
		err = binding.Validator.ValidateStruct(obj)
	}
	if err == nil {
		return true
	}
	BadRequest(c, ValidationMessage(err))
	return false
}

// ValidationMessage turns binding errors into a message naming the fields involved
func ValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		var missing, invalid []string
		for _, fe := range verrs {
			if fe.Tag() == "required" {
				missing = append(missing, fe.Field())
			} else {
				invalid = append(invalid, fe.Field())
			}
		}
		var parts []string
		if len(missing) > 0 {
			parts = append(parts, "missing required field(s): "+strings.Join(missing, ", "))
		}
		if len(invalid) > 0 {
			parts = append(parts, "invalid field(s): "+strings.Join(invalid, ", "))
		}
		return strings.Join(parts, "; ")
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Sprintf("invalid value for field %s: expected %s", typeErr.Field, typeErr.Type)
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return "malformed JSON body"
	}
	return err.Error()
}
