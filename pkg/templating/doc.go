/*
Package templating renders the site template language: HTML files with
embedded {{ }} directives.

Three directive forms exist. {{name}} writes the value of a variable, or the
configured placeholder when it is unset. {{include "path"}} renders another
file from the template directory in place, sharing the caller's variables and
collections. {{for p in all_posts orderby_desc date}} ... {{endfor}} renders
its body once per element of all_pages or all_posts, exposing the element
through keys such as p.title, p.url and p.date that disappear again when the
loop ends.

An {{endfor}} outside of any loop is a syntax error rather than the end of
the output.

A malformed directive is reported as a *SyntaxError and an unreadable
template as a *ResourceError. Either aborts the render of the current page
and nothing is written for it.
*/
package templating
