package store

import (
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type op int

const (
	opAll op = iota
	opNone
	opEq
	opNe
	opIn
	opGt
	opGte
	opLt
	opLte
	opRegex
	opExists
	opAnd
	opOr
)

// Filter is a structured predicate over flat document fields. The MongoDB
// store renders it as a query document; the memory store evaluates it.
type Filter struct {
	op       op
	field    string
	value    interface{}
	values   []interface{}
	children []Filter
}

// All matches every document.
func All() Filter { return Filter{op: opAll} }

// None matches nothing.
func None() Filter { return Filter{op: opNone} }

func Eq(field string, v interface{}) Filter { return Filter{op: opEq, field: field, value: v} }
func Ne(field string, v interface{}) Filter { return Filter{op: opNe, field: field, value: v} }
func Gt(field string, v interface{}) Filter { return Filter{op: opGt, field: field, value: v} }
func Gte(field string, v interface{}) Filter { return Filter{op: opGte, field: field, value: v} }
func Lt(field string, v interface{}) Filter { return Filter{op: opLt, field: field, value: v} }
func Lte(field string, v interface{}) Filter { return Filter{op: opLte, field: field, value: v} }

// ID matches the document with the given _id.
func ID(id primitive.ObjectID) Filter { return Eq("_id", id) }

// In matches documents whose field equals one of values. No values matches
// nothing.
func In(field string, values ...interface{}) Filter {
	return Filter{op: opIn, field: field, values: values}
}

// Exists matches documents where field is present (or absent).
func Exists(field string, present bool) Filter {
	return Filter{op: opExists, field: field, value: present}
}

// Contains is a case-insensitive substring match. term is quoted, so user
// input is never interpreted as a pattern.
func Contains(field, term string) Filter {
	return Filter{op: opRegex, field: field, value: regexp.QuoteMeta(term)}
}

func And(fs ...Filter) Filter { return combine(opAnd, fs) }
func Or(fs ...Filter) Filter  { return combine(opOr, fs) }

func combine(o op, fs []Filter) Filter {
	kept := make([]Filter, 0, len(fs))
	for _, f := range fs {
		switch {
		case o == opAnd && f.op == opAll:
			continue
		case o == opAnd && f.op == opNone:
			return None()
		case o == opOr && f.op == opAll:
			return All()
		case o == opOr && f.op == opNone:
			continue
		}
		kept = append(kept, f)
	}
	switch len(kept) {
	case 0:
		if o == opAnd {
			return All()
		}
		return None()
	case 1:
		return kept[0]
	}
	return Filter{op: o, children: kept}
}

// BSON renders the filter as a MongoDB query document.
func (f Filter) BSON() bson.M {
	switch f.op {
	case opAll:
		return bson.M{}
	case opNone:
		return bson.M{"_id": bson.M{"$in": bson.A{}}}
	case opEq:
		return bson.M{f.field: f.value}
	case opNe:
		return bson.M{f.field: bson.M{"$ne": f.value}}
	case opIn:
		vals := bson.A{}
		vals = append(vals, f.values...)
		return bson.M{f.field: bson.M{"$in": vals}}
	case opGt:
		return bson.M{f.field: bson.M{"$gt": f.value}}
	case opGte:
		return bson.M{f.field: bson.M{"$gte": f.value}}
	case opLt:
		return bson.M{f.field: bson.M{"$lt": f.value}}
	case opLte:
		return bson.M{f.field: bson.M{"$lte": f.value}}
	case opRegex:
		return bson.M{f.field: primitive.Regex{Pattern: f.value.(string), Options: "i"}}
	case opExists:
		return bson.M{f.field: bson.M{"$exists": f.value}}
	case opAnd, opOr:
		key := "$and"
		if f.op == opOr {
			key = "$or"
		}
		parts := bson.A{}
		for _, c := range f.children {
			parts = append(parts, c.BSON())
		}
		return bson.M{key: parts}
	}
	return bson.M{}
}

// Matches evaluates the filter against a decoded document.
func (f Filter) Matches(doc bson.M) bool {
	switch f.op {
	case opAll:
		return true
	case opNone:
		return false
	case opEq:
		return anyValue(doc[f.field], func(v interface{}) bool { return equal(v, f.value) })
	case opNe:
		return !anyValue(doc[f.field], func(v interface{}) bool { return equal(v, f.value) })
	case opIn:
		return anyValue(doc[f.field], func(v interface{}) bool {
			for _, want := range f.values {
				if equal(v, want) {
					return true
				}
			}
			return false
		})
	case opGt, opGte, opLt, opLte:
		c, ok := compare(doc[f.field], f.value)
		if !ok {
			return false
		}
		switch f.op {
		case opGt:
			return c > 0
		case opGte:
			return c >= 0
		case opLt:
			return c < 0
		default:
			return c <= 0
		}
	case opRegex:
		re, err := regexp.Compile("(?i)" + f.value.(string))
		if err != nil {
			return false
		}
		return anyValue(doc[f.field], func(v interface{}) bool {
			s, ok := v.(string)
			return ok && re.MatchString(s)
		})
	case opExists:
		_, present := doc[f.field]
		return present == f.value.(bool)
	case opAnd:
		for _, c := range f.children {
			if !c.Matches(doc) {
				return false
			}
		}
		return true
	case opOr:
		for _, c := range f.children {
			if c.Matches(doc) {
				return true
			}
		}
		return false
	}
	return false
}

// anyValue applies pred to v, or to each element when v is an array, the way
// MongoDB matches scalar conditions against array fields.
func anyValue(v interface{}, pred func(interface{}) bool) bool {
	if arr, ok := v.(bson.A); ok {
		for _, el := range arr {
			if pred(el) {
				return true
			}
		}
		return false
	}
	return pred(v)
}
