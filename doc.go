/*
Package liveview compiles HTML templates into views that render from a model
and stay bound to it: each dynamic part of the rendered markup is registered
as a listener on the model paths it reads, so that a document layer can
update just that part when the data changes.

Usage example

Typically in a web application you have a directory containing views for all of
your pages.  For example:

  app/views/
  app/views/app/index.html
  app/views/app/account.html
  ...

A template file declares views in sections, each starting with a header on a
line of its own:

  <Title:>
    {user.name}'s account

  <Body:>
    <h1>Welcome back, {user.name}</h1>
    {#each items}
      <app:account:item>
    {/each}

  <item:>
    <li>{.name}</li>

  <import: src="../shared" ns="shared">

The views of a file are namespaced by its path below the template directory;
"index" files take the namespace of their directory.  An import makes every
view of another file in the importing file's namespace, optionally below a
sub-namespace.

This code snippet will parse all templates within app/views, a file of view
functions, and the message catalogs, and provide back a View that can render
any declared view.  (Error checking is skipped.)

On startup:

  v, _ := liveview.NewBundle().
      WatchFiles(mode == "dev").          // watch files, reload on changes (in dev)
      AddTemplateDir("views").            // load *.html in all sub-directories
      AddFuncsFile("views/fns.js").       // view functions written in JavaScript
      AddMessagesDir("views/msgs", "fr"). // translations, as the function t
      Compile()

To render a page:

  var m = model.New(data.Map{
    "user":  data.New(user),
    "items": data.New(items),
  })
  page, err := v.Render(m, "app", nil)
  io.WriteString(resp, page.String())

After rendering, m holds a listener for every bound placeholder; see package
view for the template syntax, and package model for how changes are reported.

Advanced Usage

The liveview package provides a friendly interface to its sub-packages.
Libraries of components, rendering of individual views, and custom document
layers are served by using package view directly.
*/
package liveview
